package engine

import (
	"log/slog"
	"strconv"

	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
)

// opIncrement labels warnings raised while applying or undoing an increment.
const opIncrement = "increment"

// Trace is a graph plus the ordered log of edits that transforms it.
//
// The counter is the number of modifications currently applied, in [0, N].
// ApplyNext and ApplyUndo move it by one and mutate the live store.
//
// INVARIANTS:
//   - modifications and increments never change after New
//   - undo grows monotonically: undo[i] is the inverse of modifications[i],
//     synthesized from the store as it was just before i was first applied
//   - len(undo) >= counter
//   - installed[i] holds the increment ids the last forward apply of
//     position i actually added; undo removes only those
//
// Trace is not safe for concurrent use. Callers driving playback from a
// timer or UI loop must serialise ApplyNext and ApplyUndo.
type Trace struct {
	initial       *graph.Store
	nodes         *graph.Store
	modifications []ir.Modification
	increments    []ir.Increment
	undo          []ir.Modification
	installed     map[int][]int
	counter       int

	logger   *slog.Logger
	warnings []LogicWarning
}

// Option configures a Trace.
type Option func(*Trace)

// WithLogger sets the logger that receives LogicWarnings.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Trace) {
		t.logger = l
	}
}

// New creates a Trace positioned at counter 0.
//
// The initial store, modifications and increments are deep copied. New does
// not validate the log; use the builder for that. Driving an unvalidated
// log is allowed, and conditions the builder would have rejected turn into
// LogicWarnings at playback time.
func New(initial *graph.Store, modifications []ir.Modification, increments []ir.Increment, opts ...Option) *Trace {
	t := &Trace{
		initial:       initial.Clone(),
		nodes:         initial.Clone(),
		modifications: make([]ir.Modification, len(modifications)),
		increments:    make([]ir.Increment, len(increments)),
		installed:     make(map[int][]int),
		logger:        slog.Default(),
	}
	for i, m := range modifications {
		t.modifications[i] = m.Clone()
	}
	for i, inc := range increments {
		t.increments[i] = inc.Clone()
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ApplyNext applies the modification at the current position and its
// paired increment, then advances the counter.
//
// Returns false without touching anything when the whole log is applied.
// The inverse of the modification is synthesized from the pre-apply store
// the first time a position is visited and cached for later undo.
func (t *Trace) ApplyNext() bool {
	if t.counter >= len(t.modifications) {
		return false
	}

	pos := t.counter
	mod := t.modifications[pos]
	if pos >= len(t.undo) {
		t.undo = append(t.undo, t.synthesizeUndo(pos, mod))
	}

	t.counter++
	t.apply(pos, mod, false)
	if inc, ok := t.increment(pos); ok {
		t.installed[pos] = t.addChanges(pos, opIncrement, inc.Additions)
	}

	t.logger.Debug("applied modification",
		"position", pos,
		"type", mod.Type,
		"targets", mod.Targets,
	)
	return true
}

// ApplyUndo steps the counter back by one, removing the increment paired
// with the position being left and then applying the cached inverse of its
// modification.
//
// Returns false without touching anything at counter 0.
func (t *Trace) ApplyUndo() bool {
	if t.counter <= 0 {
		return false
	}

	t.counter--
	pos := t.counter
	if ids, ok := t.installed[pos]; ok {
		t.removeIDs(pos, opIncrement, ids)
		delete(t.installed, pos)
	}
	inverse := t.undo[pos]
	t.apply(pos, inverse, true)

	t.logger.Debug("undid modification",
		"position", pos,
		"inverse", inverse.Type,
		"targets", inverse.Targets,
	)
	return true
}

// Seek moves the counter to pos by repeated ApplyNext or ApplyUndo.
func (t *Trace) Seek(pos int) error {
	if pos < 0 || pos > len(t.modifications) {
		return NewPositionError(pos, len(t.modifications))
	}
	for t.counter < pos && t.ApplyNext() {
	}
	for t.counter > pos && t.ApplyUndo() {
	}
	return nil
}

// Reset undoes everything, returning the store to its initial state.
func (t *Trace) Reset() {
	for t.ApplyUndo() {
	}
}

// Counter returns the number of modifications currently applied.
func (t *Trace) Counter() int {
	return t.counter
}

// Len returns the number of modifications in the log.
func (t *Trace) Len() int {
	return len(t.modifications)
}

// AtStart reports whether nothing is applied.
func (t *Trace) AtStart() bool {
	return t.counter == 0
}

// AtEnd reports whether the whole log is applied.
func (t *Trace) AtEnd() bool {
	return t.counter == len(t.modifications)
}

// Nodes returns a snapshot of the live store.
func (t *Trace) Nodes() graph.View {
	return t.nodes.View()
}

// Latest returns the most recently applied modification. Renderers use its
// causers and targets to highlight what just changed.
func (t *Trace) Latest() (ir.Modification, bool) {
	if t.counter == 0 {
		return ir.Modification{}, false
	}
	return t.modifications[t.counter-1].Clone(), true
}

// Pending returns the modification ApplyNext would apply.
func (t *Trace) Pending() (ir.Modification, bool) {
	if t.counter >= len(t.modifications) {
		return ir.Modification{}, false
	}
	return t.modifications[t.counter].Clone(), true
}

// Modifications returns a copy of the log.
func (t *Trace) Modifications() []ir.Modification {
	out := make([]ir.Modification, len(t.modifications))
	for i, m := range t.modifications {
		out[i] = m.Clone()
	}
	return out
}

// Increments returns a copy of the increments.
func (t *Trace) Increments() []ir.Increment {
	out := make([]ir.Increment, len(t.increments))
	for i, inc := range t.increments {
		out[i] = inc.Clone()
	}
	return out
}

// UndoCacheLen returns how many inverses have been synthesized so far.
func (t *Trace) UndoCacheLen() int {
	return len(t.undo)
}

// Undo returns a copy of the cached inverse for pos.
func (t *Trace) Undo(pos int) (ir.Modification, bool) {
	if pos < 0 || pos >= len(t.undo) {
		return ir.Modification{}, false
	}
	return t.undo[pos].Clone(), true
}

// Warnings returns the LogicWarnings raised so far.
func (t *Trace) Warnings() []LogicWarning {
	out := make([]LogicWarning, len(t.warnings))
	copy(out, t.warnings)
	return out
}

// Dump renders the counter and live store, one node per line.
func (t *Trace) Dump() string {
	return graph.Dump(t.counter, t.nodes.View())
}

// Document returns the initial graph and the log in load/dump form.
// The undo cache is not part of the document.
func (t *Trace) Document() ir.Document {
	initial := t.initial.View()
	nodes := make(map[string]ir.Node, len(initial))
	for id, n := range initial {
		nodes[strconv.Itoa(id)] = n
	}
	return ir.Document{
		Nodes:         nodes,
		Modifications: t.Modifications(),
		Increments:    t.Increments(),
	}
}

// InitialDigest returns the content digest of the graph at counter 0.
func (t *Trace) InitialDigest() (string, error) {
	return ir.GraphDigest(t.initial.Nodes())
}

// Digest returns the content digest of the live graph.
func (t *Trace) Digest() (string, error) {
	return ir.GraphDigest(t.nodes.Nodes())
}

func (t *Trace) increment(pos int) (ir.Increment, bool) {
	if pos >= len(t.increments) {
		return ir.Increment{}, false
	}
	return t.increments[pos], true
}

func (t *Trace) warn(pos int, op string, element int, msg string) {
	w := LogicWarning{Position: pos, Op: op, Element: element, Message: msg}
	t.warnings = append(t.warnings, w)
	t.logger.Warn("logic warning",
		"position", pos,
		"op", op,
		"element", element,
		"message", msg,
	)
}
