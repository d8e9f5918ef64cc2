package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/tracegraph/internal/ir"
)

// apply dispatches one modification against the live store.
//
// inverse is set when m comes from the undo cache. The only difference is
// in Join: an inverse Join restores a captured record and uses its origins
// verbatim, even when they are empty.
func (t *Trace) apply(pos int, m ir.Modification, inverse bool) {
	switch m.Type {
	case ir.ModAdd:
		t.addChanges(pos, string(m.Type), m.Change)
	case ir.ModRemove:
		t.removeIDs(pos, string(m.Type), m.Targets)
	case ir.ModModify:
		t.modify(pos, m)
	case ir.ModJoin:
		t.join(pos, m, inverse)
	case ir.ModSplit:
		t.split(pos, m)
	default:
		t.warn(pos, string(m.Type), 0, "unknown modification type")
	}
}

// addChanges installs deep copies of the described nodes and wires them in.
// It returns the ids it installed.
//
// A descriptor whose id is already live is skipped with a warning and the
// live node is left as it is. All records are installed before any edge is
// linked, so nodes of the same batch may reference each other in either
// direction.
func (t *Trace) addChanges(pos int, op string, changes []ir.GraphChange) []int {
	installed := make([]int, 0, len(changes))
	fresh := make([]ir.GraphChange, 0, len(changes))
	for _, c := range changes {
		if t.nodes.Has(c.Index) {
			t.warn(pos, op, c.Index, "node already present, skipping it")
			continue
		}
		t.nodes.Put(c.Index, ir.Node{Code: c.Raw.CodeOr("")})
		installed = append(installed, c.Index)
		fresh = append(fresh, c)
	}

	for _, c := range fresh {
		for _, d := range c.Raw.Destinations {
			if !t.nodes.Link(c.Index, d) {
				t.warn(pos, op, c.Index, fmt.Sprintf("missing destination %d", d))
			}
		}
		for _, o := range c.Raw.Origins {
			if !t.nodes.Link(o, c.Index) {
				t.warn(pos, op, c.Index, fmt.Sprintf("missing origin %d", o))
			}
		}
	}
	return installed
}

// removeIDs detaches each node from its neighbours and deletes it.
func (t *Trace) removeIDs(pos int, op string, ids []int) {
	for _, id := range ids {
		if !t.nodes.Detach(id) {
			t.warn(pos, op, id, "missing node")
			continue
		}
		t.nodes.Delete(id)
	}
}

// modify rewrites code and destinations of each target in place.
// A nil code or nil destinations in the descriptor leaves the field alone.
// Origins are never touched: they follow from other nodes' destinations.
func (t *Trace) modify(pos int, m ir.Modification) {
	op := string(ir.ModModify)
	if len(m.Targets) != len(m.Change) {
		t.warn(pos, op, 0, fmt.Sprintf("expected same length for targets %v and changes %v", m.Targets, m.ChangeIndexes()))
		return
	}

	for i, target := range m.Targets {
		if !t.nodes.Has(target) {
			t.warn(pos, op, target, "missing node")
			continue
		}
		change := m.Change[i]
		if change.Index != target {
			t.warn(pos, op, target, fmt.Sprintf("change index %d does not match target, using target", change.Index))
		}

		if change.Raw.Code != nil {
			t.nodes.SetCode(target, *change.Raw.Code)
		}
		if change.Raw.Destinations != nil {
			skipped, _ := t.nodes.ReplaceDestinations(target, change.Raw.Destinations)
			for _, d := range skipped {
				t.warn(pos, op, target, fmt.Sprintf("missing destination %d", d))
			}
		}
	}
}

// join replaces two nodes by one.
//
// Predecessors of either target are carried over to the joined node unless
// the descriptor declares its own origins. The log entry itself is never
// mutated: the computed origins go into a private copy of the descriptor.
func (t *Trace) join(pos int, m ir.Modification, inverse bool) {
	t0, t1, ok := t.joinOperands(pos, m)
	if !ok {
		return
	}

	joined := m.Change[0].Clone()
	if !inverse && len(joined.Raw.Origins) == 0 {
		joined.Raw.Origins = t.joinOrigins(t0, t1)
	}

	t.removeIDs(pos, string(ir.ModJoin), []int{t0, t1})
	t.addChanges(pos, string(ir.ModJoin), []ir.GraphChange{joined})
}

// joinOrigins is the de-duplicated union of both targets' origins, minus
// the targets themselves.
func (t *Trace) joinOrigins(t0, t1 int) []int {
	union := append(t.nodes.Origins(t0), t.nodes.Origins(t1)...)
	union = slices.DeleteFunc(union, func(id int) bool { return id == t0 || id == t1 })
	slices.Sort(union)
	return slices.Compact(union)
}

// split replaces one node by two.
func (t *Trace) split(pos int, m ir.Modification) {
	target, ok := t.splitOperand(pos, m)
	if !ok {
		return
	}

	op := string(ir.ModSplit)
	t.removeIDs(pos, op, []int{target})
	t.addChanges(pos, op, m.Change)
}

// joinOperands checks the shape a Join needs at apply time: two live
// targets and one descriptor whose id is either free or one of the targets.
func (t *Trace) joinOperands(pos int, m ir.Modification) (int, int, bool) {
	op := string(ir.ModJoin)
	if len(m.Targets) != 2 || len(m.Change) != 1 {
		t.warn(pos, op, 0, fmt.Sprintf("expected two targets and one change, got %d and %d", len(m.Targets), len(m.Change)))
		return 0, 0, false
	}
	t0, t1 := m.Targets[0], m.Targets[1]
	for _, id := range []int{t0, t1} {
		if !t.nodes.Has(id) {
			t.warn(pos, op, id, "missing node")
			return 0, 0, false
		}
	}
	if joined := m.Change[0].Index; joined != t0 && joined != t1 && t.nodes.Has(joined) {
		t.warn(pos, op, joined, "joined node should be a new value")
		return 0, 0, false
	}
	return t0, t1, true
}

// splitOperand checks the shape a Split needs at apply time: one live
// target and two descriptors whose ids are free or the target itself.
func (t *Trace) splitOperand(pos int, m ir.Modification) (int, bool) {
	op := string(ir.ModSplit)
	if len(m.Targets) != 1 || len(m.Change) != 2 {
		t.warn(pos, op, 0, fmt.Sprintf("expected one target and two changes, got %d and %d", len(m.Targets), len(m.Change)))
		return 0, false
	}
	if !t.nodes.Has(m.Targets[0]) {
		t.warn(pos, op, m.Targets[0], "missing node")
		return 0, false
	}
	for _, c := range m.Change {
		if c.Index != m.Targets[0] && t.nodes.Has(c.Index) {
			t.warn(pos, op, c.Index, "new nodes should be new values")
			return 0, false
		}
	}
	return m.Targets[0], true
}
