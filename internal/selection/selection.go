// Package selection computes the subgraph connecting two chosen nodes.
//
// Selecting a and b masks every node that lies on a directed walk from a to
// b or from b to a over the destinations relation. Renderers then filter
// their view through the mask to highlight that path.
package selection

import (
	"fmt"
	"slices"

	"github.com/roach88/tracegraph/internal/graph"
)

// Graph is the read-only adjacency a selection walks.
// graph.View and graph.Store both satisfy it.
type Graph interface {
	Has(id int) bool
	Destinations(id int) []int
}

// Selector holds the current selection and its mask.
//
// The zero value is an inactive selector. Selector is not safe for
// concurrent use.
type Selector struct {
	selection []int
	mask      map[int]bool
	active    bool
}

// Select replaces the selection with exactly two ids and recomputes the
// mask against g.
//
// If either id is not in g the selection is still active but the mask is
// empty: no relation is assumed between unknown nodes.
func (s *Selector) Select(g Graph, ids ...int) error {
	if len(ids) != 2 {
		return fmt.Errorf("select requires exactly two ids, got %d", len(ids))
	}

	s.selection = slices.Clone(ids)
	s.mask = make(map[int]bool)
	s.active = true

	a, b := ids[0], ids[1]
	if !g.Has(a) || !g.Has(b) {
		return nil
	}

	for id := range paths(g, a, b) {
		s.mask[id] = true
	}
	for id := range paths(g, b, a) {
		s.mask[id] = true
	}
	return nil
}

// Clear drops the selection and mask.
func (s *Selector) Clear() {
	s.selection = nil
	s.mask = nil
	s.active = false
}

// Active reports whether a selection is in effect.
func (s *Selector) Active() bool {
	return s.active
}

// Masked reports whether id is kept by the current mask.
func (s *Selector) Masked(id int) bool {
	return s.mask[id]
}

// Selection returns the two selected ids, or nil when inactive.
func (s *Selector) Selection() []int {
	return slices.Clone(s.selection)
}

// Mask returns the masked ids in ascending order.
func (s *Selector) Mask() []int {
	ids := make([]int, 0, len(s.mask))
	for id := range s.mask {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MaskIfAvailable filters v through the mask.
//
// Without an active selection v is returned unchanged. Otherwise the
// result is a copy holding only masked nodes, with destinations and
// origins restricted to other masked nodes.
func (s *Selector) MaskIfAvailable(v graph.View) graph.View {
	if !s.active {
		return v
	}

	out := make(graph.View, len(s.mask))
	for id, n := range v {
		if !s.mask[id] {
			continue
		}
		n = n.Clone()
		n.Destinations = s.keep(n.Destinations)
		n.Origins = s.keep(n.Origins)
		out[id] = n
	}
	return out
}

func (s *Selector) keep(ids []int) []int {
	out := []int{}
	for _, id := range ids {
		if s.mask[id] {
			out = append(out, id)
		}
	}
	return out
}

// paths returns every node on some directed walk from -> to, including
// both ends, or nothing if to is unreachable.
//
// A node is on such a walk exactly when it is reachable from `from` and can
// itself reach `to`. Both searches use explicit stacks so deep graphs do
// not grow the call stack.
func paths(g Graph, from, to int) map[int]bool {
	forward := reach(from, func(id int) []int {
		return g.Destinations(id)
	})
	if !forward[to] {
		return nil
	}

	// Reverse adjacency restricted to what the forward walk saw.
	reverse := make(map[int][]int, len(forward))
	for id := range forward {
		for _, d := range g.Destinations(id) {
			if forward[d] {
				reverse[d] = append(reverse[d], id)
			}
		}
	}
	backward := reach(to, func(id int) []int {
		return reverse[id]
	})

	onPath := make(map[int]bool)
	for id := range forward {
		if backward[id] {
			onPath[id] = true
		}
	}
	return onPath
}

// reach is an iterative depth-first search with a per-call visited set.
func reach(start int, next func(int) []int) map[int]bool {
	visited := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range next(id) {
			if !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}
	return visited
}
