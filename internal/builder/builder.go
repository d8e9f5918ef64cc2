package builder

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/tracegraph/internal/engine"
	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
)

// Builder accumulates an initial graph and an edit log.
//
// Builder is not safe for concurrent use.
type Builder struct {
	nodes         map[int]ir.Node
	modifications []ir.Modification
	increments    []ir.Increment

	// Staging buffers, flushed by CommitModification and CommitIncrement.
	staged          []ir.GraphChange
	stagedIncrement []ir.GraphChange

	err    error
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for partial-load diagnostics and handed
// to the traces the builder produces.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// New creates an empty Builder.
func New(opts ...Option) *Builder {
	b := &Builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.Reset()
	return b
}

// Reset discards everything accumulated so far, including a sticky error.
func (b *Builder) Reset() *Builder {
	b.nodes = make(map[int]ir.Node)
	b.modifications = nil
	b.increments = nil
	b.staged = nil
	b.stagedIncrement = nil
	b.err = nil
	return b
}

// Err returns the first error recorded by a chained call.
func (b *Builder) Err() error {
	return b.err
}

// AppendNode registers an initial node. Origins are derived at Build.
func (b *Builder) AppendNode(id int, code string, destinations ...int) *Builder {
	if b.err != nil {
		return b
	}
	if _, ok := b.nodes[id]; ok {
		b.err = elementError(ErrDuplicateNode, "Node append", id, "already used", -1)
		return b
	}
	b.nodes[id] = ir.Node{Code: code, Destinations: slices.Clone(destinations)}
	return b
}

// UpdateDestinations replaces the destinations of an initial node.
func (b *Builder) UpdateDestinations(id int, destinations ...int) *Builder {
	if b.err != nil {
		return b
	}
	n, ok := b.nodes[id]
	if !ok {
		b.err = elementError(ErrUnknownNode, "Destination update", id, "does not exist", -1)
		return b
	}
	n.Destinations = slices.Clone(destinations)
	b.nodes[id] = n
	return b
}

// StageChangeNode stages a descriptor for the next CommitModification.
// A nil destinations or origins slice means the field is not supplied.
func (b *Builder) StageChangeNode(id int, code string, destinations, origins []int) *Builder {
	return b.StageChange(changeNode(id, ir.Str(code), destinations, origins))
}

// StageChange stages an arbitrary descriptor, e.g. one with no code.
func (b *Builder) StageChange(c ir.GraphChange) *Builder {
	if b.err != nil {
		return b
	}
	b.staged = append(b.staged, c.Clone())
	return b
}

// CommitModification appends a modification carrying the staged
// descriptors and clears the staging buffer. With nothing staged the
// modification has no change list.
func (b *Builder) CommitModification(typ ir.ModificationType, causers, targets []int) *Builder {
	if b.err != nil {
		return b
	}
	b.modifications = append(b.modifications, ir.Modification{
		Type:    typ,
		Causers: slices.Clone(causers),
		Targets: slices.Clone(targets),
		Change:  b.flush(&b.staged),
	})
	return b
}

// StageIncrementNode stages an addition for the next CommitIncrement.
func (b *Builder) StageIncrementNode(id int, code string, destinations, origins []int) *Builder {
	return b.StageIncrementChange(changeNode(id, ir.Str(code), destinations, origins))
}

// StageIncrementChange stages an arbitrary addition.
func (b *Builder) StageIncrementChange(c ir.GraphChange) *Builder {
	if b.err != nil {
		return b
	}
	b.stagedIncrement = append(b.stagedIncrement, c.Clone())
	return b
}

// CommitIncrement appends an increment holding the staged additions and
// clears the staging buffer. Increments pair with modifications by
// position, so committing an empty increment is how a modification is
// skipped over.
func (b *Builder) CommitIncrement() *Builder {
	if b.err != nil {
		return b
	}
	additions := b.flush(&b.stagedIncrement)
	if additions == nil {
		additions = []ir.GraphChange{}
	}
	b.increments = append(b.increments, ir.Increment{Additions: additions})
	return b
}

// Build derives initial origins, validates the log and returns a Trace
// positioned at counter 0.
//
// Initial origins are recomputed from destinations, overwriting whatever
// was supplied. No Trace is returned unless validation passes.
func (b *Builder) Build() (*engine.Trace, error) {
	if b.err != nil {
		return nil, b.err
	}

	if err := b.checkInitialEdges(); err != nil {
		return nil, err
	}
	store := graph.FromNodes(b.nodes)
	if err := store.RecomputeOrigins(); err != nil {
		return nil, fmt.Errorf("recompute origins: %w", err)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return engine.New(store, b.modifications, b.increments, engine.WithLogger(b.logger)), nil
}

// MustBuild is like Build but panics on error.
// Use only in tests or for built-in traces known to be valid.
func (b *Builder) MustBuild() *engine.Trace {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

func (b *Builder) checkInitialEdges() error {
	ids := make([]int, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		for _, d := range b.nodes[id].Destinations {
			if _, ok := b.nodes[d]; !ok {
				return elementError(ErrBadInitialEdge, "Node", id, fmt.Sprintf("has bad destination %d", d), -1)
			}
		}
	}
	return nil
}

// flush hands over a staging buffer and empties it.
func (b *Builder) flush(buf *[]ir.GraphChange) []ir.GraphChange {
	out := *buf
	*buf = nil
	return out
}

func changeNode(id int, code *string, destinations, origins []int) ir.GraphChange {
	return ir.GraphChange{
		Index: id,
		Raw: ir.ChangeNode{
			Code:         code,
			Destinations: slices.Clone(destinations),
			Origins:      slices.Clone(origins),
		},
	}
}
