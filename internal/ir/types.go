package ir

import "slices"

// ModificationType names one kind of structural edit in the log.
type ModificationType string

const (
	ModAdd    ModificationType = "add"
	ModRemove ModificationType = "remove"
	ModModify ModificationType = "modify"
	ModJoin   ModificationType = "join"
	ModSplit  ModificationType = "split"
)

// ValidModificationTypes defines the edit kinds the engine knows how to apply.
var ValidModificationTypes = map[ModificationType]bool{
	ModAdd:    true,
	ModRemove: true,
	ModModify: true,
	ModJoin:   true,
	ModSplit:  true,
}

// Node is a vertex of the live graph: its content plus outgoing and incoming
// adjacency. Both adjacency lists are sets.
type Node struct {
	Code         string `json:"code" yaml:"code"`
	Destinations []int  `json:"destinations" yaml:"destinations"`
	Origins      []int  `json:"origins" yaml:"origins"`
}

// ChangeNode is the payload of a GraphChange.
//
// A nil Code or nil Destinations means the field was not supplied. Modify
// only touches the fields that are present.
type ChangeNode struct {
	Code         *string `json:"code" yaml:"code"`
	Destinations []int   `json:"destinations" yaml:"destinations"`
	Origins      []int   `json:"origins" yaml:"origins"`
}

// GraphChange describes a node to be installed under Index.
type GraphChange struct {
	Index int        `json:"index" yaml:"index"`
	Raw   ChangeNode `json:"raw" yaml:"raw"`
}

// Modification is one committed structural edit.
//
// Causers are provenance for renderers only; nothing in the engine or the
// validator reads them.
type Modification struct {
	Type    ModificationType `json:"type" yaml:"type"`
	Causers []int            `json:"causers" yaml:"causers"`
	Targets []int            `json:"targets" yaml:"targets"`
	Change  []GraphChange    `json:"change" yaml:"change"`
}

// Increment is a bundle of pure additions sharing a timeline index with the
// modification at the same position.
type Increment struct {
	Additions []GraphChange `json:"additions" yaml:"additions"`
}

// Document is the external load/dump representation of a trace.
// Node ids are stringified integers.
type Document struct {
	Nodes         map[string]Node `json:"nodes" yaml:"nodes"`
	Modifications []Modification  `json:"modifications" yaml:"modifications"`
	Increments    []Increment     `json:"increments" yaml:"increments"`
}

// Str returns a pointer to s, for building ChangeNode literals.
func Str(s string) *string {
	return &s
}

// CodeOr returns the change code, or fallback when none was supplied.
func (c ChangeNode) CodeOr(fallback string) string {
	if c.Code == nil {
		return fallback
	}
	return *c.Code
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	return Node{
		Code:         n.Code,
		Destinations: cloneIDs(n.Destinations),
		Origins:      cloneIDs(n.Origins),
	}
}

// ToChange captures the node as a fully populated change payload.
// Destinations and origins are always non-nil in the result.
func (n Node) ToChange() ChangeNode {
	code := n.Code
	dst := make([]int, len(n.Destinations))
	copy(dst, n.Destinations)
	org := make([]int, len(n.Origins))
	copy(org, n.Origins)
	return ChangeNode{Code: &code, Destinations: dst, Origins: org}
}

// Clone returns a deep copy of the change payload, preserving nil-ness.
func (c ChangeNode) Clone() ChangeNode {
	out := ChangeNode{
		Destinations: cloneIDs(c.Destinations),
		Origins:      cloneIDs(c.Origins),
	}
	if c.Code != nil {
		code := *c.Code
		out.Code = &code
	}
	return out
}

// ToNode materialises the change payload as a live node record.
func (c ChangeNode) ToNode() Node {
	return Node{
		Code:         c.CodeOr(""),
		Destinations: cloneIDs(c.Destinations),
		Origins:      cloneIDs(c.Origins),
	}
}

// Clone returns a deep copy of the change.
func (g GraphChange) Clone() GraphChange {
	return GraphChange{Index: g.Index, Raw: g.Raw.Clone()}
}

// Clone returns a deep copy of the modification.
func (m Modification) Clone() Modification {
	return Modification{
		Type:    m.Type,
		Causers: cloneIDs(m.Causers),
		Targets: cloneIDs(m.Targets),
		Change:  CloneChanges(m.Change),
	}
}

// ChangeIndexes returns the ids the modification installs.
func (m Modification) ChangeIndexes() []int {
	return changeIndexes(m.Change)
}

// Clone returns a deep copy of the increment.
func (i Increment) Clone() Increment {
	return Increment{Additions: CloneChanges(i.Additions)}
}

// AdditionIndexes returns the ids the increment installs.
func (i Increment) AdditionIndexes() []int {
	return changeIndexes(i.Additions)
}

// CloneChanges deep copies a change list, preserving nil-ness.
func CloneChanges(changes []GraphChange) []GraphChange {
	if changes == nil {
		return nil
	}
	out := make([]GraphChange, len(changes))
	for i, c := range changes {
		out[i] = c.Clone()
	}
	return out
}

func changeIndexes(changes []GraphChange) []int {
	ids := make([]int, len(changes))
	for i, c := range changes {
		ids[i] = c.Index
	}
	return ids
}

func cloneIDs(ids []int) []int {
	if ids == nil {
		return nil
	}
	return slices.Clone(ids)
}
