package engine

import (
	"slices"

	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
)

// Peek header codes. Node 0 of a modification preview carries one of these
// and points at the nodes it acts on.
const (
	PeekModify = "Modify"
	PeekAdd    = "Add"
	PeekRemove = "Remove"
	PeekJoin   = "Join"
	PeekSplit  = "split"
)

// PeekModification builds a small standalone preview of the pending
// modification. The live store is read, never written.
//
// Layouts, by type:
//
//	Modify: 0 -> targets; t -> -t where t holds the current code, -t the new
//	Add:    0 -> new ids; each new id holds its code
//	Remove: 0 -> targets; each target holds its current code
//	Join:   0 -> 1, 2; 1 and 2 hold the target codes and point at 3, the joined code
//	Split:  0 -> 1; 1 holds the original code and points at 2 and 3, the new codes
//
// Origins are assigned from destinations. Returns false when nothing is
// pending.
//
// A Modify that targets node 0 collides with the header; the target wins.
func (t *Trace) PeekModification() (graph.View, bool) {
	m, ok := t.Pending()
	if !ok {
		return nil, false
	}

	v := graph.View{}
	switch m.Type {
	case ir.ModModify:
		v[0] = peekNode(PeekModify, slices.Clone(m.Targets)...)
		for i, target := range m.Targets {
			current := t.code(target)
			next := current
			if i < len(m.Change) {
				next = m.Change[i].Raw.CodeOr(current)
			}
			v[target] = peekNode(current, -target)
			v[-target] = peekNode(next)
		}

	case ir.ModAdd:
		v[0] = peekNode(PeekAdd, m.ChangeIndexes()...)
		for _, c := range m.Change {
			v[c.Index] = peekNode(c.Raw.CodeOr(""))
		}

	case ir.ModRemove:
		v[0] = peekNode(PeekRemove, slices.Clone(m.Targets)...)
		for _, target := range m.Targets {
			v[target] = peekNode(t.code(target))
		}

	case ir.ModJoin:
		if len(m.Targets) != 2 || len(m.Change) != 1 {
			break
		}
		v[0] = peekNode(PeekJoin, 1, 2)
		v[1] = peekNode(t.code(m.Targets[0]), 3)
		v[2] = peekNode(t.code(m.Targets[1]), 3)
		v[3] = peekNode(m.Change[0].Raw.CodeOr(""))

	case ir.ModSplit:
		if len(m.Targets) != 1 || len(m.Change) != 2 {
			break
		}
		v[0] = peekNode(PeekSplit, 1)
		v[1] = peekNode(t.code(m.Targets[0]), 2, 3)
		v[2] = peekNode(m.Change[0].Raw.CodeOr(""))
		v[3] = peekNode(m.Change[1].Raw.CodeOr(""))
	}

	v.AssignOrigins()
	return v, true
}

// PeekIncrement previews the increment paired with the pending position.
//
// The additions are deep copied and their adjacency is restricted to ids
// inside the same batch; references to the rest of the graph are dropped.
// Returns false when no increment is pending.
func (t *Trace) PeekIncrement() (graph.View, bool) {
	if t.counter >= len(t.modifications) {
		return nil, false
	}
	inc, ok := t.increment(t.counter)
	if !ok {
		return nil, false
	}

	batch := make(map[int]bool, len(inc.Additions))
	for _, id := range inc.AdditionIndexes() {
		batch[id] = true
	}
	inBatch := func(ids []int) []int {
		out := []int{}
		for _, id := range ids {
			if batch[id] {
				out = append(out, id)
			}
		}
		return out
	}

	v := make(graph.View, len(inc.Additions))
	for _, c := range inc.Additions {
		v[c.Index] = ir.Node{
			Code:         c.Raw.CodeOr(""),
			Destinations: inBatch(c.Raw.Destinations),
			Origins:      inBatch(c.Raw.Origins),
		}
	}
	return v, true
}

// code returns the live code of id, or "" when id is not live.
func (t *Trace) code(id int) string {
	n, ok := t.nodes.Get(id)
	if !ok {
		return ""
	}
	return n.Code
}

func peekNode(code string, destinations ...int) ir.Node {
	if destinations == nil {
		destinations = []int{}
	}
	return ir.Node{Code: code, Destinations: destinations, Origins: []int{}}
}
