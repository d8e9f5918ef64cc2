package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/tracegraph/internal/ir"
)

// ABCJSON is a three-node document, a -> {b, c} and b -> c, with a
// remove, an add and a modify in its log.
const ABCJSON = `{
  "nodes": {
    "0": {"code": "a", "destinations": [1, 2]},
    "1": {"code": "b", "destinations": [2]},
    "2": {"code": "c", "destinations": []}
  },
  "modifications": [
    {"type": "remove", "causers": [0], "targets": [2]},
    {"type": "add", "causers": [], "targets": [1],
     "change": [{"index": 3, "raw": {"code": "d", "destinations": [], "origins": [1]}}]},
    {"type": "modify", "causers": [1], "targets": [0],
     "change": [{"index": 0, "raw": {"code": "a2"}}]}
  ],
  "increments": []
}
`

// ABCDump is the dump of ABCJSON at counter 0.
const ABCDump = "counter: 0\n" +
	"  k 0 - v { code : a | destinations: 1,2 | origins:  }\n" +
	"  k 1 - v { code : b | destinations: 2 | origins: 0 }\n" +
	"  k 2 - v { code : c | destinations:  | origins: 0,1 }"

// ABCFinalDump is the dump of ABCJSON at counter 3.
const ABCFinalDump = "counter: 3\n" +
	"  k 0 - v { code : a2 | destinations: 1 | origins:  }\n" +
	"  k 1 - v { code : b | destinations: 3 | origins: 0 }\n" +
	"  k 3 - v { code : d | destinations:  | origins: 1 }"

// ABCDocument is ABCJSON in decoded form, origins included.
func ABCDocument() ir.Document {
	return ir.Document{
		Nodes: map[string]ir.Node{
			"0": {Code: "a", Destinations: []int{1, 2}, Origins: []int{}},
			"1": {Code: "b", Destinations: []int{2}, Origins: []int{0}},
			"2": {Code: "c", Destinations: []int{}, Origins: []int{0, 1}},
		},
		Modifications: []ir.Modification{
			{Type: ir.ModRemove, Causers: []int{0}, Targets: []int{2}},
			{
				Type: ir.ModAdd, Causers: []int{}, Targets: []int{1},
				Change: []ir.GraphChange{{Index: 3, Raw: ir.ChangeNode{Code: ir.Str("d"), Destinations: []int{}, Origins: []int{1}}}},
			},
			{
				Type: ir.ModModify, Causers: []int{1}, Targets: []int{0},
				Change: []ir.GraphChange{{Index: 0, Raw: ir.ChangeNode{Code: ir.Str("a2")}}},
			},
		},
		Increments: []ir.Increment{},
	}
}

// WriteFile writes data to name under a fresh temp dir and returns the
// path.
func WriteFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
