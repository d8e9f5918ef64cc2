// Package engine plays a trace's edit log forwards and backwards.
//
// A Trace owns the live node store, the fixed log of modifications and the
// increments paired with them by position. ApplyNext applies one
// modification plus its increment; ApplyUndo reverts one.
//
// UNDO SYNTHESIS:
//
// Inverses are not stored in the log. The first time a position is applied,
// its inverse is computed from the store as it is just before the apply and
// appended to an undo cache that only ever grows:
//
//	Add     -> Remove of the new ids
//	Remove  -> Add of deep copies of the removed records
//	Modify  -> Modify back to deep copies of the targets
//	Join    -> Split of the joined node into copies of both targets
//	Split   -> Join of the new nodes back into a copy of the target
//
// An increment is a batch of additions. It is applied as an Add after its
// modification and undone as a Remove before the cached inverse runs.
//
// WARNINGS:
//
// Playback never fails. Conditions a validated log cannot produce (a missing
// node, mismatched target and change counts) skip the offending sub-step and
// are logged as LogicWarnings on the trace's slog.Logger.
//
// PEEK:
//
// PeekModification and PeekIncrement build small standalone graphs that
// preview the pending edit for a renderer. They never touch the live store.
//
// CRITICAL PATTERNS:
//
// Deep copy on capture. Every record that outlives the store state it was
// read from (undo cache entries, removed-node snapshots, views) is a value
// copy, never a shared slice.
package engine
