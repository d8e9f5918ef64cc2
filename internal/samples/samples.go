// Package samples holds the built-in regression corpus.
//
// Every sample must survive a full forward pass followed by a full undo
// with its node store unchanged; the replay command and the package tests
// check exactly that.
package samples

import (
	"github.com/roach88/tracegraph/internal/builder"
	"github.com/roach88/tracegraph/internal/engine"
	"github.com/roach88/tracegraph/internal/ir"
)

// Sample is a named trace recipe.
type Sample struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	build func(*builder.Builder) *builder.Builder
}

// Summary is the listing form of a sample.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Nodes       int    `json:"nodes"`
	Steps       int    `json:"steps"`
}

// Builder returns a fresh builder loaded with the sample.
func (s Sample) Builder(opts ...builder.Option) *builder.Builder {
	return s.build(builder.New(opts...))
}

// Trace builds a fresh trace positioned at counter 0.
func (s Sample) Trace(opts ...builder.Option) (*engine.Trace, error) {
	return s.Builder(opts...).Build()
}

// Summarize describes the sample without its graph.
func (s Sample) Summarize() Summary {
	t := s.Builder().MustBuild()
	return Summary{
		Name:        s.Name,
		Description: s.Description,
		Nodes:       len(t.Nodes()),
		Steps:       t.Len(),
	}
}

var corpus = []Sample{
	{
		Name:        "Simple graph",
		Description: "Small graph showing all supported operations",
		build:       simpleGraph,
	},
	{
		Name:        "Small x86",
		Description: "Small x86 random instructions",
		build:       smallX86,
	},
}

// All returns the corpus in a stable order.
func All() []Sample {
	out := make([]Sample, len(corpus))
	copy(out, corpus)
	return out
}

// ByName looks a sample up by its exact name.
func ByName(name string) (Sample, bool) {
	for _, s := range corpus {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}

// Summaries lists every sample.
func Summaries() []Summary {
	out := make([]Summary, len(corpus))
	for i, s := range corpus {
		out[i] = s.Summarize()
	}
	return out
}

func simpleGraph(b *builder.Builder) *builder.Builder {
	return b.
		AppendNode(0, "a", 1, 3, 4, 5).
		AppendNode(1, "b", 2, 3).
		AppendNode(2, "c", 3).
		AppendNode(3, "d").
		AppendNode(4, "e").
		AppendNode(5, "f", 6).
		AppendNode(6, "g", 7).
		AppendNode(7, "h", 8).
		AppendNode(8, "i", 9).
		AppendNode(9, "j").
		CommitModification(ir.ModRemove, []int{3}, []int{9}).
		StageIncrementNode(20, "inc-1-1", []int{21, 22}, []int{3}).
		StageIncrementNode(21, "inc-1-2", []int{}, []int{20}).
		StageIncrementNode(22, "inc-1-3", []int{}, []int{20}).
		CommitIncrement().
		StageChangeNode(15, "new code", []int{3, 4}, []int{0, 1}).
		CommitModification(ir.ModAdd, []int{}, []int{0}).
		CommitIncrement().
		StageChangeNode(2, "changed code", []int{3, 4}, []int{}).
		CommitModification(ir.ModModify, []int{5}, []int{2}).
		CommitIncrement().
		StageChangeNode(10, "joined code", []int{8}, []int{}).
		CommitModification(ir.ModJoin, []int{3, 3}, []int{6, 7}).
		CommitIncrement().
		StageChangeNode(11, "f-1", []int{10}, []int{0}).
		StageChangeNode(12, "f-2", []int{10}, []int{0}).
		CommitModification(ir.ModSplit, []int{0}, []int{5}).
		CommitIncrement()
}

const x86Block = "push rbp\n" +
	"mov rbp, rsp\n" +
	"sub rsp, 80\n" +
	"mov QWORD PTR [rbp-72], rdi\n" +
	"mov DWORD PTR [rbp-76], esi\n" +
	"mov DWORD PTR [rbp-80], edx,\n" +
	"jne .L2"

func smallX86(b *builder.Builder) *builder.Builder {
	return b.
		AppendNode(0, "start", 1).
		AppendNode(1, x86Block, 2, 3).
		AppendNode(2, x86Block).
		AppendNode(3, x86Block)
}
