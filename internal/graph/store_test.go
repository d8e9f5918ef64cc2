package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/ir"
)

// abc builds a -> {b, c}, b -> {c} with ids 0, 1, 2.
func abc(t *testing.T) *Store {
	t.Helper()
	s := FromNodes(map[int]ir.Node{
		0: {Code: "a", Destinations: []int{2, 1}},
		1: {Code: "b", Destinations: []int{2}},
		2: {Code: "c"},
	})
	require.NoError(t, s.RecomputeOrigins())
	return s
}

func TestRecomputeOrigins(t *testing.T) {
	s := abc(t)

	assert.Equal(t, []int{}, s.Origins(0))
	assert.Equal(t, []int{0}, s.Origins(1))
	assert.Equal(t, []int{0, 1}, s.Origins(2))
	assert.Equal(t, []int{1, 2}, s.Destinations(0), "adjacency is kept sorted")
}

func TestRecomputeOriginsOverwrites(t *testing.T) {
	s := FromNodes(map[int]ir.Node{
		0: {Code: "a", Destinations: []int{1}, Origins: []int{1}},
		1: {Code: "b", Origins: []int{7}},
	})
	require.NoError(t, s.RecomputeOrigins())

	assert.Equal(t, []int{}, s.Origins(0))
	assert.Equal(t, []int{0}, s.Origins(1))
}

func TestRecomputeOriginsBadDestination(t *testing.T) {
	s := FromNodes(map[int]ir.Node{0: {Code: "a", Destinations: []int{9}}})

	err := s.RecomputeOrigins()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad destination 9")
}

func TestPutDeepCopiesAndNormalizes(t *testing.T) {
	s := New()
	dst := []int{3, 1, 3}
	s.Put(0, ir.Node{Code: "a", Destinations: dst})
	dst[0] = 42

	n, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, n.Destinations)
	assert.NotNil(t, n.Origins)

	n.Destinations[0] = 99
	assert.Equal(t, []int{1, 3}, s.Destinations(0), "Get returns a copy")
}

func TestLinkUnlink(t *testing.T) {
	s := abc(t)

	assert.True(t, s.Link(2, 0))
	assert.Equal(t, []int{0}, s.Destinations(2))
	assert.Equal(t, []int{2}, s.Origins(0))

	assert.True(t, s.Link(2, 0), "linking twice is idempotent")
	assert.Equal(t, []int{0}, s.Destinations(2))

	assert.False(t, s.Link(2, 5))
	assert.Equal(t, []int{0}, s.Destinations(2))

	s.Unlink(0, 1)
	assert.Equal(t, []int{2}, s.Destinations(0))
	assert.Equal(t, []int{}, s.Origins(1))
}

func TestDetach(t *testing.T) {
	s := abc(t)

	require.True(t, s.Detach(1))
	s.Delete(1)

	assert.False(t, s.Has(1))
	assert.Equal(t, []int{2}, s.Destinations(0))
	assert.Equal(t, []int{0}, s.Origins(2))
	assert.False(t, s.Detach(1))
}

func TestDetachSelfLoop(t *testing.T) {
	s := FromNodes(map[int]ir.Node{0: {Code: "loop", Destinations: []int{0}}})
	require.NoError(t, s.RecomputeOrigins())

	require.True(t, s.Detach(0))
	assert.Equal(t, []int{}, s.Destinations(0))
	assert.Equal(t, []int{}, s.Origins(0))
}

func TestReplaceDestinations(t *testing.T) {
	s := abc(t)

	skipped, ok := s.ReplaceDestinations(0, []int{1, 8})
	require.True(t, ok)
	assert.Equal(t, []int{8}, skipped)
	assert.Equal(t, []int{1}, s.Destinations(0))
	assert.Equal(t, []int{1}, s.Origins(2))

	_, ok = s.ReplaceDestinations(9, nil)
	assert.False(t, ok)
}

func TestCloneAndEqual(t *testing.T) {
	s := abc(t)
	c := s.Clone()
	assert.True(t, s.Equal(c))

	c.SetCode(1, "b2")
	assert.False(t, s.Equal(c))

	n, _ := s.Get(1)
	assert.Equal(t, "b", n.Code)

	d := s.Clone()
	d.Unlink(0, 2)
	assert.False(t, s.Equal(d))
}

func TestIDsSorted(t *testing.T) {
	s := New()
	for _, id := range []int{10, -3, 4} {
		s.Put(id, ir.Node{Code: "x"})
	}
	assert.Equal(t, []int{-3, 4, 10}, s.IDs())
	assert.Equal(t, 3, s.Len())
}
