package builder

import (
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// presence tracks a node id during the validation dry run.
type presence int

const (
	neverExisted presence = iota // zero value: ids absent from the map
	alive
	removed
)

type presenceMap map[int]presence

// Validate replays the log structurally and returns the first problem.
//
// Rules per modification at index i:
//   - Add: new ids must not be alive; after all are registered, every
//     destination and origin they reference must be alive
//   - Remove: targets must be alive; they become removed
//   - Modify: targets must be alive; descriptors may not declare origins
//   - Join: two targets, one descriptor with a code and no origins; both
//     targets become removed, the new id becomes alive
//   - Split: one target, two descriptors with fresh ids; the target
//     becomes removed, both new ids become alive
//
// An increment at i is then checked like an Add.
func (b *Builder) Validate() error {
	if b.err != nil {
		return b.err
	}
	if len(b.increments) > len(b.modifications) {
		return &StructuralError{
			Code:   ErrTooManyIncrements,
			Index:  -1,
			Detail: fmt.Sprintf("Number of modifications should be >= number of increments (%d < %d)", len(b.modifications), len(b.increments)),
		}
	}

	p := make(presenceMap, len(b.nodes))
	for id := range b.nodes {
		p[id] = alive
	}

	for i, m := range b.modifications {
		if err := p.check(i, m); err != nil {
			return err
		}
		if i < len(b.increments) {
			if err := p.add(i, "Increments/Addition", b.increments[i].Additions); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p presenceMap) check(i int, m ir.Modification) error {
	switch m.Type {
	case ir.ModAdd:
		return p.add(i, "Addition", m.Change)

	case ir.ModRemove:
		for _, t := range m.Targets {
			if err := p.removeNode(t, "Removal", i); err != nil {
				return err
			}
		}
		return nil

	case ir.ModModify:
		for _, t := range m.Targets {
			if err := p.existNode(t, "Modification", i); err != nil {
				return err
			}
		}
		for _, c := range m.Change {
			if err := p.connections(c, "Modification", i, true); err != nil {
				return err
			}
		}
		return nil

	case ir.ModJoin:
		if err := joinShape(m, i); err != nil {
			return err
		}
		for _, t := range m.Targets {
			if err := p.removeNode(t, "Join/Removal", i); err != nil {
				return err
			}
		}
		return p.add(i, "Join/Addition", m.Change)

	case ir.ModSplit:
		if err := p.splitShape(m, i); err != nil {
			return err
		}
		if err := p.removeNode(m.Targets[0], "Split/Removal", i); err != nil {
			return err
		}
		return p.add(i, "Split/Addition", m.Change)
	}

	return shapeError(ErrUnknownType, "", fmt.Sprintf("Unexpected modification type %q", m.Type), i)
}

// add registers every new id first, then checks references, so nodes of
// one batch may point at each other.
func (p presenceMap) add(i int, what string, changes []ir.GraphChange) error {
	for _, c := range changes {
		if err := p.addNode(c.Index, what, i); err != nil {
			return err
		}
	}
	for _, c := range changes {
		if err := p.connections(c, what, i, false); err != nil {
			return err
		}
	}
	return nil
}

func (p presenceMap) addNode(id int, what string, i int) error {
	if p[id] == alive {
		return elementError(ErrAlreadyUsed, what, id, "already used", i)
	}
	p[id] = alive
	return nil
}

func (p presenceMap) existNode(id int, what string, i int) error {
	switch p[id] {
	case neverExisted:
		return elementError(ErrCompletelyUnknown, what, id, "completely unknown", i)
	case removed:
		return elementError(ErrCurrentlyUnknown, what, id, "currently unknown", i)
	}
	return nil
}

func (p presenceMap) removeNode(id int, what string, i int) error {
	if err := p.existNode(id, what, i); err != nil {
		return err
	}
	p[id] = removed
	return nil
}

func (p presenceMap) connections(c ir.GraphChange, what string, i int, emptyOrigins bool) error {
	for _, d := range c.Raw.Destinations {
		if p[d] != alive {
			return elementError(ErrBadDestination, what, c.Index, fmt.Sprintf("has bad destination %d", d), i)
		}
	}
	if emptyOrigins && len(c.Raw.Origins) > 0 {
		return elementError(ErrOriginUsage, what, c.Index, "has unexpected origin usage", i)
	}
	for _, o := range c.Raw.Origins {
		if p[o] != alive {
			return elementError(ErrBadOrigin, what, c.Index, fmt.Sprintf("has bad origin %d", o), i)
		}
	}
	return nil
}

func joinShape(m ir.Modification, i int) error {
	var detail string
	switch {
	case len(m.Targets) != 2:
		detail = "should have exactly two targets"
	case len(m.Change) != 1 || m.Change[0].Raw.Code == nil:
		detail = "requires exactly one new code"
	case len(m.Change[0].Raw.Origins) > 0:
		detail = "requires empty origin for joined node"
	default:
		return nil
	}
	return shapeError(ErrJoinShape, "Join Error", detail, i)
}

// splitShape also rejects new ids that are alive before the split,
// including the split target itself.
func (p presenceMap) splitShape(m ir.Modification, i int) error {
	var detail string
	switch {
	case len(m.Targets) != 1:
		detail = "should have exactly one target"
	case len(m.Change) != 2 || m.Change[0].Raw.Code == nil || m.Change[1].Raw.Code == nil:
		detail = "requires new code"
	case m.Change[0].Index == m.Change[1].Index || p[m.Change[0].Index] == alive || p[m.Change[1].Index] == alive:
		detail = "new nodes should be new values"
	default:
		return nil
	}
	return shapeError(ErrSplitShape, "Split Error", detail, i)
}
