// Package builder assembles and validates traces.
//
// A Builder collects an initial graph and an edit log, either call by call
// or from an external document, and turns them into an *engine.Trace only
// after a full structural dry run of the log succeeds.
//
// STAGING:
//
// Change descriptors are staged first and attached when the owning entry
// is committed:
//
//	b := builder.New().
//		AppendNode(0, "a", 1).
//		AppendNode(1, "b").
//		StageChangeNode(2, "c", []int{1}, []int{0}).
//		CommitModification(ir.ModAdd, []int{0}, nil).
//		CommitIncrement()
//	trace, err := b.Build()
//
// Commits flush the staging buffer explicitly. Methods chain; the first
// error sticks and is returned by Build or Err.
//
// VALIDATION:
//
// Validate replays the log over a presence map (never existed, alive,
// removed) without touching a node store. Every rejection is a
// *StructuralError carrying the modification index and, where there is
// one, the offending node id.
//
// A new id is fresh when it is not alive. Ids freed by Remove, Join or
// Split may be reused by later entries.
package builder
