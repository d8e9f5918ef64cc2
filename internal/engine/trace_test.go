package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// abcStore is a -> {b, c}, b -> c with ids 0, 1, 2.
func abcStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.FromNodes(map[int]ir.Node{
		0: {Code: "a", Destinations: []int{1, 2}},
		1: {Code: "b", Destinations: []int{2}},
		2: {Code: "c"},
	})
	require.NoError(t, s.RecomputeOrigins())
	return s
}

func newTrace(t *testing.T, mods []ir.Modification, incs ...ir.Increment) *Trace {
	t.Helper()
	return New(abcStore(t), mods, incs, WithLogger(quietLogger()))
}

func change(id int, code string, destinations, origins []int) ir.GraphChange {
	return ir.GraphChange{Index: id, Raw: ir.ChangeNode{Code: ir.Str(code), Destinations: destinations, Origins: origins}}
}

// requireSymmetric checks that every edge is recorded at both ends.
func requireSymmetric(t *testing.T, v graph.View) {
	t.Helper()
	for id, n := range v {
		for _, d := range n.Destinations {
			require.Contains(t, v, d, "node %d points at missing node %d", id, d)
			require.Contains(t, v[d].Origins, id, "edge %d -> %d missing from origins", id, d)
		}
		for _, o := range n.Origins {
			require.Contains(t, v, o, "node %d has missing origin %d", id, o)
			require.Contains(t, v[o].Destinations, id, "edge %d -> %d missing from destinations", o, id)
		}
	}
}

const abcDump = "counter: 0\n" +
	"  k 0 - v { code : a | destinations: 1,2 | origins:  }\n" +
	"  k 1 - v { code : b | destinations: 2 | origins: 0 }\n" +
	"  k 2 - v { code : c | destinations:  | origins: 0,1 }"

func TestApplyByType(t *testing.T) {
	tests := []struct {
		name string
		mod  ir.Modification
		want string
	}{
		{
			name: "add",
			mod: ir.Modification{Type: ir.ModAdd, Causers: []int{0}, Targets: []int{1},
				Change: []ir.GraphChange{change(3, "c", []int{2}, []int{0})}},
			want: "counter: 1\n" +
				"  k 0 - v { code : a | destinations: 1,2,3 | origins:  }\n" +
				"  k 1 - v { code : b | destinations: 2 | origins: 0 }\n" +
				"  k 2 - v { code : c | destinations:  | origins: 0,1,3 }\n" +
				"  k 3 - v { code : c | destinations: 2 | origins: 0 }",
		},
		{
			name: "remove",
			mod:  ir.Modification{Type: ir.ModRemove, Causers: []int{0}, Targets: []int{2}},
			want: "counter: 1\n" +
				"  k 0 - v { code : a | destinations: 1 | origins:  }\n" +
				"  k 1 - v { code : b | destinations:  | origins: 0 }",
		},
		{
			name: "modify",
			mod: ir.Modification{Type: ir.ModModify, Causers: []int{0}, Targets: []int{1},
				Change: []ir.GraphChange{change(1, "b2", []int{}, []int{})}},
			want: "counter: 1\n" +
				"  k 0 - v { code : a | destinations: 1,2 | origins:  }\n" +
				"  k 1 - v { code : b2 | destinations:  | origins: 0 }\n" +
				"  k 2 - v { code : c | destinations:  | origins: 0 }",
		},
		{
			name: "join",
			mod: ir.Modification{Type: ir.ModJoin, Causers: []int{0, 0}, Targets: []int{1, 2},
				Change: []ir.GraphChange{change(4, "joined", []int{}, []int{})}},
			want: "counter: 1\n" +
				"  k 0 - v { code : a | destinations: 4 | origins:  }\n" +
				"  k 4 - v { code : joined | destinations:  | origins: 0 }",
		},
		{
			name: "split",
			mod: ir.Modification{Type: ir.ModSplit, Causers: []int{0}, Targets: []int{2},
				Change: []ir.GraphChange{
					change(3, "c-1", []int{}, []int{0, 1}),
					change(4, "c-2", []int{}, []int{0}),
				}},
			want: "counter: 1\n" +
				"  k 0 - v { code : a | destinations: 1,3,4 | origins:  }\n" +
				"  k 1 - v { code : b | destinations: 3 | origins: 0 }\n" +
				"  k 3 - v { code : c-1 | destinations:  | origins: 0,1 }\n" +
				"  k 4 - v { code : c-2 | destinations:  | origins: 0 }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTrace(t, []ir.Modification{tt.mod}, ir.Increment{Additions: []ir.GraphChange{}})
			require.Equal(t, abcDump, tr.Dump())

			require.True(t, tr.ApplyNext())
			assert.Equal(t, tt.want, tr.Dump())
			requireSymmetric(t, tr.Nodes())

			require.True(t, tr.ApplyUndo())
			assert.Equal(t, abcDump, tr.Dump(), "undo restores the initial graph")
			requireSymmetric(t, tr.Nodes())
			assert.Empty(t, tr.Warnings())
		})
	}
}

func TestBoundaryNoOps(t *testing.T) {
	tr := newTrace(t, []ir.Modification{{Type: ir.ModRemove, Targets: []int{2}}})

	assert.False(t, tr.ApplyUndo())
	assert.Equal(t, abcDump, tr.Dump())
	assert.Equal(t, 0, tr.UndoCacheLen())

	require.True(t, tr.ApplyNext())
	after := tr.Dump()

	assert.False(t, tr.ApplyNext())
	assert.Equal(t, after, tr.Dump())
	assert.Equal(t, 1, tr.Counter())
}

func TestEmptyLog(t *testing.T) {
	tr := newTrace(t, nil)

	assert.True(t, tr.AtStart())
	assert.True(t, tr.AtEnd())
	assert.False(t, tr.ApplyNext())
	assert.False(t, tr.ApplyUndo())
}

func TestAddRemoveDuality(t *testing.T) {
	tr := newTrace(t, []ir.Modification{{
		Type:   ir.ModAdd,
		Change: []ir.GraphChange{change(7, "x", []int{2}, []int{1})},
	}})

	require.True(t, tr.ApplyNext())
	n, ok := tr.Nodes()[7]
	require.True(t, ok)
	assert.Equal(t, "x", n.Code)
	assert.Equal(t, []int{2}, n.Destinations)
	assert.Equal(t, []int{1}, n.Origins)
	assert.Contains(t, tr.Nodes()[1].Destinations, 7)
	assert.Contains(t, tr.Nodes()[2].Origins, 7)

	require.True(t, tr.ApplyUndo())
	v := tr.Nodes()
	assert.False(t, v.Has(7))
	for id, n := range v {
		assert.NotContains(t, n.Destinations, 7, "node %d", id)
		assert.NotContains(t, n.Origins, 7, "node %d", id)
	}
}

func TestJoinSplitDuality(t *testing.T) {
	t.Run("join then synthesized split", func(t *testing.T) {
		tr := newTrace(t, []ir.Modification{{
			Type:    ir.ModJoin,
			Targets: []int{1, 2},
			Change:  []ir.GraphChange{change(4, "joined", []int{}, []int{})},
		}})
		before := tr.Nodes()

		require.True(t, tr.ApplyNext())
		inverse, ok := tr.Undo(0)
		require.True(t, ok)
		assert.Equal(t, ir.ModSplit, inverse.Type)
		assert.Equal(t, []int{4}, inverse.Targets)
		assert.Equal(t, []int{1, 2}, inverse.ChangeIndexes())

		require.True(t, tr.ApplyUndo())
		assert.True(t, before.Equal(tr.Nodes()))
	})

	t.Run("split then synthesized join", func(t *testing.T) {
		tr := newTrace(t, []ir.Modification{{
			Type:    ir.ModSplit,
			Targets: []int{1},
			Change: []ir.GraphChange{
				change(5, "b-1", []int{2}, []int{0}),
				change(6, "b-2", []int{}, []int{}),
			},
		}})
		before := tr.Nodes()

		require.True(t, tr.ApplyNext())
		inverse, ok := tr.Undo(0)
		require.True(t, ok)
		assert.Equal(t, ir.ModJoin, inverse.Type)
		assert.Equal(t, []int{5, 6}, inverse.Targets)
		assert.Equal(t, []int{1}, inverse.ChangeIndexes())

		require.True(t, tr.ApplyUndo())
		assert.True(t, before.Equal(tr.Nodes()), "got:\n%s", tr.Dump())
	})

	t.Run("split of a root restores empty origins", func(t *testing.T) {
		// Node 0 has no origins; the split nodes declare one. The
		// synthesized join must not hand node 0 the split nodes' origins.
		tr := newTrace(t, []ir.Modification{{
			Type:    ir.ModSplit,
			Targets: []int{0},
			Change: []ir.GraphChange{
				change(5, "a-1", []int{1}, []int{2}),
				change(6, "a-2", []int{2}, []int{}),
			},
		}})
		before := tr.Nodes()

		require.True(t, tr.ApplyNext())
		require.True(t, tr.ApplyUndo())
		assert.True(t, before.Equal(tr.Nodes()), "got:\n%s", tr.Dump())
	})
}

func TestJoinCarriesOriginsWithoutMutatingLog(t *testing.T) {
	// 0 -> 1 -> 2 and 0 -> 2; join 1 and 2 into 5.
	tr := newTrace(t, []ir.Modification{{
		Type:    ir.ModJoin,
		Targets: []int{1, 2},
		Change:  []ir.GraphChange{change(5, "j", []int{}, []int{})},
	}})

	require.True(t, tr.ApplyNext())
	assert.Equal(t, []int{0}, tr.Nodes()[5].Origins)

	logged := tr.Modifications()[0]
	assert.Equal(t, []int{}, logged.Change[0].Raw.Origins, "declared origins stay untouched")
}

func TestEndToEndModify(t *testing.T) {
	tr := newTrace(t, []ir.Modification{{
		Type:    ir.ModModify,
		Targets: []int{1},
		Change:  []ir.GraphChange{change(1, "b2", []int{}, nil)},
	}})
	a := tr.Nodes()[0]

	require.True(t, tr.ApplyNext())
	v := tr.Nodes()
	assert.Equal(t, a, v[0])
	assert.Equal(t, "b2", v[1].Code)
	assert.Empty(t, v[1].Destinations)
	assert.NotContains(t, v[2].Origins, 1)

	require.True(t, tr.ApplyUndo())
	v = tr.Nodes()
	assert.Equal(t, "b", v[1].Code)
	assert.Equal(t, []int{2}, v[1].Destinations)
	assert.Contains(t, v[2].Origins, 1)
}

func TestModifyLeavesAbsentFieldsAlone(t *testing.T) {
	tr := newTrace(t, []ir.Modification{{
		Type:    ir.ModModify,
		Targets: []int{1, 0},
		Change: []ir.GraphChange{
			{Index: 1, Raw: ir.ChangeNode{Code: ir.Str("renamed")}},
			{Index: 0, Raw: ir.ChangeNode{Destinations: []int{2}}},
		},
	}})

	require.True(t, tr.ApplyNext())
	v := tr.Nodes()
	assert.Equal(t, "renamed", v[1].Code)
	assert.Equal(t, []int{2}, v[1].Destinations)
	assert.Equal(t, "a", v[0].Code)
	assert.Equal(t, []int{2}, v[0].Destinations)
	assert.Equal(t, []int{}, v[1].Origins)
}

func TestIncrementAppliedAndUndone(t *testing.T) {
	tr := newTrace(t,
		[]ir.Modification{{Type: ir.ModRemove, Targets: []int{0}}},
		ir.Increment{Additions: []ir.GraphChange{
			change(10, "i1", []int{11, 2}, []int{}),
			change(11, "i2", []int{}, []int{1}),
		}},
	)

	require.True(t, tr.ApplyNext())
	v := tr.Nodes()
	assert.False(t, v.Has(0))
	assert.Equal(t, []int{2, 11}, v[10].Destinations)
	assert.Equal(t, []int{1, 10}, v[11].Origins)
	assert.Equal(t, []int{2, 11}, v[1].Destinations)

	require.True(t, tr.ApplyUndo())
	assert.Equal(t, abcDump, tr.Dump())
}

func TestUndoCacheGrowsOnce(t *testing.T) {
	tr := newTrace(t, []ir.Modification{
		{Type: ir.ModRemove, Targets: []int{2}},
		{Type: ir.ModRemove, Targets: []int{1}},
	})

	require.True(t, tr.ApplyNext())
	require.True(t, tr.ApplyUndo())
	require.True(t, tr.ApplyNext())
	assert.Equal(t, 1, tr.UndoCacheLen())

	require.True(t, tr.ApplyNext())
	assert.Equal(t, 2, tr.UndoCacheLen())

	tr.Reset()
	assert.Equal(t, abcDump, tr.Dump())
	assert.Equal(t, 2, tr.UndoCacheLen())
}

func TestUndoCacheIsNotAliased(t *testing.T) {
	tr := newTrace(t, []ir.Modification{
		{Type: ir.ModRemove, Targets: []int{2}},
		{Type: ir.ModModify, Targets: []int{1}, Change: []ir.GraphChange{change(1, "b2", []int{}, nil)}},
	})

	require.NoError(t, tr.Seek(2))
	inverse, ok := tr.Undo(0)
	require.True(t, ok)
	assert.Equal(t, "c", *inverse.Change[0].Raw.Code)
	assert.Equal(t, []int{0, 1}, inverse.Change[0].Raw.Origins)

	tr.Reset()
	assert.Equal(t, abcDump, tr.Dump())
}

func TestSeek(t *testing.T) {
	tr := newTrace(t, []ir.Modification{
		{Type: ir.ModRemove, Targets: []int{2}},
		{Type: ir.ModRemove, Targets: []int{1}},
	})

	require.NoError(t, tr.Seek(2))
	assert.True(t, tr.AtEnd())
	assert.Equal(t, []int{0}, tr.Nodes().IDs())

	require.NoError(t, tr.Seek(1))
	assert.Equal(t, []int{0, 1}, tr.Nodes().IDs())

	err := tr.Seek(3)
	require.Error(t, err)
	assert.True(t, IsPositionError(err))
	assert.Equal(t, 1, tr.Counter())

	assert.True(t, IsPositionError(tr.Seek(-1)))
}

func TestLatestAndPending(t *testing.T) {
	tr := newTrace(t, []ir.Modification{
		{Type: ir.ModRemove, Causers: []int{0}, Targets: []int{2}},
	})

	_, ok := tr.Latest()
	assert.False(t, ok)
	pending, ok := tr.Pending()
	require.True(t, ok)
	assert.Equal(t, []int{2}, pending.Targets)

	require.True(t, tr.ApplyNext())
	latest, ok := tr.Latest()
	require.True(t, ok)
	assert.Equal(t, []int{0}, latest.Causers)
	assert.Equal(t, []int{2}, latest.Targets)

	_, ok = tr.Pending()
	assert.False(t, ok)
}

func TestLogicWarnings(t *testing.T) {
	tr := newTrace(t, []ir.Modification{
		{Type: ir.ModRemove, Targets: []int{9}},
		{Type: ir.ModModify, Targets: []int{1}},
		{Type: ir.ModJoin, Targets: []int{1}},
		{Type: "rotate", Targets: []int{1}},
		{Type: ir.ModAdd, Targets: []int{0}, Change: []ir.GraphChange{change(1, "x", nil, nil)}},
		{Type: ir.ModSplit, Targets: []int{2}, Change: []ir.GraphChange{
			change(1, "s1", nil, nil),
			change(3, "s2", nil, nil),
		}},
		{Type: ir.ModJoin, Targets: []int{1, 2}, Change: []ir.GraphChange{change(0, "j", nil, nil)}},
	})

	require.NoError(t, tr.Seek(7))
	assert.Equal(t, "counter: 7", tr.Dump()[:len("counter: 7")])
	assert.True(t, abcStore(t).View().Equal(tr.Nodes()), "store is untouched:\n%s", tr.Dump())
	requireSymmetric(t, tr.Nodes())

	warnings := tr.Warnings()
	require.Len(t, warnings, 7)
	assert.Equal(t, "remove", warnings[0].Op)
	assert.Equal(t, 9, warnings[0].Element)
	assert.Equal(t, "modify", warnings[1].Op)
	assert.Equal(t, "join", warnings[2].Op)
	assert.Equal(t, 3, warnings[3].Position)
	assert.Equal(t, "add", warnings[4].Op)
	assert.Equal(t, 1, warnings[4].Element)
	assert.Equal(t, "split", warnings[5].Op)
	assert.Equal(t, 1, warnings[5].Element)
	assert.Equal(t, "join", warnings[6].Op)
	assert.Equal(t, 0, warnings[6].Element)

	addUndo, ok := tr.Undo(4)
	require.True(t, ok)
	assert.Equal(t, ir.ModRemove, addUndo.Type)
	assert.Empty(t, addUndo.Targets, "a skipped add removes nothing on undo")
	for _, pos := range []int{5, 6} {
		inverse, ok := tr.Undo(pos)
		require.True(t, ok)
		assert.Equal(t, ir.ModAdd, inverse.Type)
		assert.Empty(t, inverse.Change)
	}

	tr.Reset()
	assert.True(t, abcStore(t).View().Equal(tr.Nodes()), "got:\n%s", tr.Dump())
	assert.Len(t, tr.Warnings(), 7, "undo raises no new warnings")
}

func TestIncrementSkipsLiveNodes(t *testing.T) {
	tr := newTrace(t,
		[]ir.Modification{{Type: ir.ModModify, Targets: []int{1}, Change: []ir.GraphChange{change(1, "b2", nil, nil)}}},
		ir.Increment{Additions: []ir.GraphChange{
			change(0, "dup", nil, nil),
			change(7, "fresh", nil, []int{0}),
		}},
	)

	require.True(t, tr.ApplyNext())
	v := tr.Nodes()
	assert.Equal(t, "a", v[0].Code, "live node is not replaced")
	assert.Equal(t, []int{1, 2, 7}, v[0].Destinations)
	assert.Equal(t, []int{0}, v[7].Origins)
	requireSymmetric(t, v)

	warnings := tr.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, opIncrement, warnings[0].Op)
	assert.Equal(t, 0, warnings[0].Element)

	require.True(t, tr.ApplyUndo())
	assert.Equal(t, abcDump, tr.Dump())
	assert.Len(t, tr.Warnings(), 1)

	require.True(t, tr.ApplyNext())
	require.True(t, tr.ApplyUndo())
	assert.Equal(t, abcDump, tr.Dump())
}

func TestNewCopiesInputs(t *testing.T) {
	mods := []ir.Modification{{Type: ir.ModRemove, Targets: []int{2}}}
	s := abcStore(t)
	tr := New(s, mods, nil, WithLogger(quietLogger()))

	mods[0].Targets[0] = 1
	s.Delete(0)

	require.True(t, tr.ApplyNext())
	assert.Equal(t, []int{0, 1}, tr.Nodes().IDs())
}

func TestDocumentAndDigests(t *testing.T) {
	tr := newTrace(t, []ir.Modification{{Type: ir.ModRemove, Targets: []int{2}}})

	initial, err := tr.InitialDigest()
	require.NoError(t, err)
	live, err := tr.Digest()
	require.NoError(t, err)
	assert.Equal(t, initial, live)

	require.True(t, tr.ApplyNext())
	live, err = tr.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, initial, live)

	doc := tr.Document()
	assert.Len(t, doc.Nodes, 3, "document holds the initial graph")
	assert.Equal(t, []int{0, 1}, doc.Nodes["2"].Origins)
	require.Len(t, doc.Modifications, 1)
	assert.Empty(t, doc.Increments)
}
