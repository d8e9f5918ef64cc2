package graph

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/tracegraph/internal/ir"
)

// View is a detached snapshot of a node set.
//
// Views are what renderers, the peek generator and the selection mask work
// with. Mutating a View never affects the Store it came from.
type View map[int]ir.Node

// IDs returns the ids in ascending order.
func (v View) IDs() []int {
	ids := make([]int, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Has reports whether id is present in the view.
func (v View) Has(id int) bool {
	_, ok := v[id]
	return ok
}

// Destinations returns the outgoing adjacency of id.
func (v View) Destinations(id int) []int {
	return v[id].Destinations
}

// Clone returns a deep copy of the view.
func (v View) Clone() View {
	c := make(View, len(v))
	for id, n := range v {
		c[id] = n.Clone()
	}
	return c
}

// Equal reports whether both views hold the same graph.
func (v View) Equal(other View) bool {
	if len(v) != len(other) {
		return false
	}
	for id, n := range v {
		o, ok := other[id]
		if !ok || !nodeEqual(n, o) {
			return false
		}
	}
	return true
}

// AssignOrigins overwrites every node's origins from the destinations in the
// view. Destinations pointing outside the view are ignored.
func (v View) AssignOrigins() {
	origins := make(map[int][]int, len(v))
	for _, id := range v.IDs() {
		for _, d := range v[id].Destinations {
			if v.Has(d) {
				origins[d] = append(origins[d], id)
			}
		}
	}
	for id, n := range v {
		n.Origins = normalize(origins[id])
		v[id] = n
	}
}

// String renders the nodes one per line in ascending id order:
//
//	k <id> - v { code : <code> | destinations: <d,...> | origins: <o,...> }
func (v View) String() string {
	var b strings.Builder
	for i, id := range v.IDs() {
		if i > 0 {
			b.WriteByte('\n')
		}
		n := v[id]
		fmt.Fprintf(&b, "  k %d - v { code : %s | destinations: %s | origins: %s }",
			id, n.Code, joinIDs(n.Destinations), joinIDs(n.Origins))
	}
	return b.String()
}

// Dump renders a view with its playback position.
func Dump(counter int, v View) string {
	header := "counter: " + strconv.Itoa(counter)
	if len(v) == 0 {
		return header
	}
	return header + "\n" + v.String()
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
