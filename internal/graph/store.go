package graph

import (
	"fmt"
	"slices"

	"github.com/roach88/tracegraph/internal/ir"
)

// Store is the mutable node collection of a trace.
//
// Store is not safe for concurrent use.
type Store struct {
	nodes map[int]*ir.Node
}

// New creates an empty store.
func New() *Store {
	return &Store{nodes: make(map[int]*ir.Node)}
}

// FromNodes creates a store holding deep copies of nodes.
// Adjacency is normalised but not reconciled; see RecomputeOrigins.
func FromNodes(nodes map[int]ir.Node) *Store {
	s := &Store{nodes: make(map[int]*ir.Node, len(nodes))}
	for id, n := range nodes {
		s.Put(id, n)
	}
	return s
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// Has reports whether id is a live node.
func (s *Store) Has(id int) bool {
	_, ok := s.nodes[id]
	return ok
}

// Get returns a deep copy of the node stored under id.
func (s *Store) Get(id int) (ir.Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return ir.Node{}, false
	}
	return n.Clone(), true
}

// Put stores a deep copy of n under id, replacing any previous record.
func (s *Store) Put(id int, n ir.Node) {
	s.nodes[id] = &ir.Node{
		Code:         n.Code,
		Destinations: normalize(n.Destinations),
		Origins:      normalize(n.Origins),
	}
}

// Delete removes id without touching its neighbours.
// Use Detach first to keep adjacency symmetric.
func (s *Store) Delete(id int) {
	delete(s.nodes, id)
}

// SetCode replaces the code of id. Returns false if id is not live.
func (s *Store) SetCode(id int, code string) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.Code = code
	return true
}

// IDs returns the live ids in ascending order.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Destinations returns a copy of the outgoing adjacency of id.
func (s *Store) Destinations(id int) []int {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.Destinations)
}

// Origins returns a copy of the incoming adjacency of id.
func (s *Store) Origins(id int) []int {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.Origins)
}

// Link installs the edge from -> to on both ends.
// Returns false, changing nothing, when either end is not live.
func (s *Store) Link(from, to int) bool {
	src, ok := s.nodes[from]
	if !ok {
		return false
	}
	dst, ok := s.nodes[to]
	if !ok {
		return false
	}
	src.Destinations = insert(src.Destinations, to)
	dst.Origins = insert(dst.Origins, from)
	return true
}

// Unlink removes the edge from -> to from whichever ends are live.
func (s *Store) Unlink(from, to int) {
	if src, ok := s.nodes[from]; ok {
		src.Destinations = remove(src.Destinations, to)
	}
	if dst, ok := s.nodes[to]; ok {
		dst.Origins = remove(dst.Origins, from)
	}
}

// Detach removes every edge touching id, leaving id itself in place with
// empty adjacency. Returns false if id is not live.
func (s *Store) Detach(id int) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	for _, o := range slices.Clone(n.Origins) {
		s.Unlink(o, id)
	}
	for _, d := range slices.Clone(n.Destinations) {
		s.Unlink(id, d)
	}
	return true
}

// ReplaceDestinations swaps the outgoing adjacency of id wholesale, fixing
// up origins on both the old and the new destination sets.
//
// Destinations that are not live are skipped and returned so the caller can
// report them.
func (s *Store) ReplaceDestinations(id int, destinations []int) (skipped []int, ok bool) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	for _, d := range slices.Clone(n.Destinations) {
		s.Unlink(id, d)
	}
	for _, d := range normalize(destinations) {
		if !s.Link(id, d) {
			skipped = append(skipped, d)
		}
	}
	return skipped, true
}

// RecomputeOrigins overwrites every node's origins from the destinations of
// all nodes. Previous origins are discarded, not merged.
//
// A destination naming a node that is not live is an error; the store is
// left with the origins computed so far.
func (s *Store) RecomputeOrigins() error {
	for _, n := range s.nodes {
		n.Origins = []int{}
	}
	for _, id := range s.IDs() {
		for _, d := range s.nodes[id].Destinations {
			dst, ok := s.nodes[d]
			if !ok {
				return fmt.Errorf("node %d has bad destination %d", id, d)
			}
			dst.Origins = insert(dst.Origins, id)
		}
	}
	return nil
}

// Clone returns an independent deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{nodes: make(map[int]*ir.Node, len(s.nodes))}
	for id, n := range s.nodes {
		cp := n.Clone()
		c.nodes[id] = &cp
	}
	return c
}

// Equal reports whether both stores hold the same ids with the same code
// and adjacency.
func (s *Store) Equal(other *Store) bool {
	if len(s.nodes) != len(other.nodes) {
		return false
	}
	for id, n := range s.nodes {
		o, ok := other.nodes[id]
		if !ok || !nodeEqual(*n, *o) {
			return false
		}
	}
	return true
}

// View returns a deep-copied snapshot of the store.
func (s *Store) View() View {
	v := make(View, len(s.nodes))
	for id, n := range s.nodes {
		v[id] = n.Clone()
	}
	return v
}

// Nodes returns a deep-copied snapshot keyed by id, suitable for digests.
func (s *Store) Nodes() map[int]ir.Node {
	return map[int]ir.Node(s.View())
}

func nodeEqual(a, b ir.Node) bool {
	return a.Code == b.Code &&
		slices.Equal(a.Destinations, b.Destinations) &&
		slices.Equal(a.Origins, b.Origins)
}

// normalize returns a sorted, de-duplicated, never-nil copy of ids.
func normalize(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func insert(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func remove(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}
