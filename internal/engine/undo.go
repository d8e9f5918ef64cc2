package engine

import (
	"slices"

	"github.com/roach88/tracegraph/internal/ir"
)

// synthesizeUndo builds the inverse of m from the store as it is right
// before m is applied. Every captured record is a deep copy, so later
// playback cannot alias the cache.
//
// When m cannot be applied (the same conditions apply() warns about), the
// inverse is a no-op so a subsequent undo leaves the store alone.
func (t *Trace) synthesizeUndo(pos int, m ir.Modification) ir.Modification {
	causers := append([]int(nil), m.Causers...)

	switch m.Type {
	case ir.ModAdd:
		return ir.Modification{
			Type:    ir.ModRemove,
			Causers: causers,
			Targets: t.freeIDs(m.ChangeIndexes()),
		}

	case ir.ModRemove:
		targets, changes := t.capture(m.Targets)
		return ir.Modification{
			Type:    ir.ModAdd,
			Causers: causers,
			Targets: targets,
			Change:  changes,
		}

	case ir.ModModify:
		if len(m.Targets) != len(m.Change) {
			return noop(causers)
		}
		targets, changes := t.capture(m.Targets)
		return ir.Modification{
			Type:    ir.ModModify,
			Causers: causers,
			Targets: targets,
			Change:  changes,
		}

	case ir.ModJoin:
		t0, t1, ok := t.peekJoinOperands(m)
		if !ok {
			return noop(causers)
		}
		_, changes := t.capture([]int{t0, t1})
		return ir.Modification{
			Type:    ir.ModSplit,
			Causers: causers,
			Targets: []int{m.Change[0].Index},
			Change:  changes,
		}

	case ir.ModSplit:
		target, ok := t.peekSplitOperand(m)
		if !ok {
			return noop(causers)
		}
		_, changes := t.capture([]int{target})
		return ir.Modification{
			Type:    ir.ModJoin,
			Causers: causers,
			Targets: m.ChangeIndexes(),
			Change:  changes,
		}
	}

	return noop(causers)
}

// capture snapshots the live targets as fully populated change descriptors.
// Targets that are not live are dropped from both results.
func (t *Trace) capture(ids []int) ([]int, []ir.GraphChange) {
	targets := make([]int, 0, len(ids))
	changes := make([]ir.GraphChange, 0, len(ids))
	for _, id := range ids {
		n, ok := t.nodes.Get(id)
		if !ok {
			continue
		}
		targets = append(targets, id)
		changes = append(changes, ir.GraphChange{Index: id, Raw: n.ToChange()})
	}
	return targets, changes
}

// freeIDs keeps the ids that are not live, dropping repeats. Those are
// the ids an Add will actually install.
func (t *Trace) freeIDs(ids []int) []int {
	free := make([]int, 0, len(ids))
	for _, id := range ids {
		if !t.nodes.Has(id) && !slices.Contains(free, id) {
			free = append(free, id)
		}
	}
	return free
}

// peekJoinOperands mirrors joinOperands without raising warnings; apply()
// reports the problem once.
func (t *Trace) peekJoinOperands(m ir.Modification) (int, int, bool) {
	if len(m.Targets) != 2 || len(m.Change) != 1 {
		return 0, 0, false
	}
	t0, t1 := m.Targets[0], m.Targets[1]
	if !t.nodes.Has(t0) || !t.nodes.Has(t1) {
		return 0, 0, false
	}
	if joined := m.Change[0].Index; joined != t0 && joined != t1 && t.nodes.Has(joined) {
		return 0, 0, false
	}
	return t0, t1, true
}

// peekSplitOperand mirrors splitOperand without raising warnings.
func (t *Trace) peekSplitOperand(m ir.Modification) (int, bool) {
	if len(m.Targets) != 1 || len(m.Change) != 2 || !t.nodes.Has(m.Targets[0]) {
		return 0, false
	}
	for _, c := range m.Change {
		if c.Index != m.Targets[0] && t.nodes.Has(c.Index) {
			return 0, false
		}
	}
	return m.Targets[0], true
}

// noop is an Add with nothing to add.
func noop(causers []int) ir.Modification {
	return ir.Modification{
		Type:    ir.ModAdd,
		Causers: causers,
		Targets: []int{},
		Change:  []ir.GraphChange{},
	}
}
