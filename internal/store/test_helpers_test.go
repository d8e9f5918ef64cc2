package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tracegraph/internal/ir"
)

// createTestStore opens a fresh store under t.TempDir with predictable ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(NewFixedGenerator("doc")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDocument builds a small a -> b -> c document with one Modify.
func createTestDocument(code string) ir.Document {
	return ir.Document{
		Nodes: map[string]ir.Node{
			"0": {Code: "a", Destinations: []int{1}, Origins: []int{}},
			"1": {Code: "b", Destinations: []int{2}, Origins: []int{0}},
			"2": {Code: "c", Destinations: []int{}, Origins: []int{1}},
		},
		Modifications: []ir.Modification{
			{
				Type:    ir.ModModify,
				Causers: []int{0},
				Targets: []int{1},
				Change:  []ir.GraphChange{{Index: 1, Raw: ir.ChangeNode{Code: ir.Str(code)}}},
			},
		},
		Increments: []ir.Increment{},
	}
}
