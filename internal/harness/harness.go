package harness

import (
	"fmt"
	"log/slog"

	"github.com/roach88/tracegraph/internal/builder"
	"github.com/roach88/tracegraph/internal/engine"
	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/samples"
	"github.com/roach88/tracegraph/internal/selection"
	"github.com/roach88/tracegraph/internal/testutil"
)

// Harness drives one trace and one selector through a scenario.
type Harness struct {
	trace    *engine.Trace
	selector *selection.Selector
	logger   *slog.Logger
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes engine and loader logs. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario builds a fresh trace at counter 0. A step that cannot run
// (a seek out of range, a selection with the wrong arity) aborts the run
// with an error. Assertion failures are reported in the result instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{logger: testutil.QuietLogger()}
	for _, opt := range opts {
		opt(cfg)
	}

	tr, err := loadTrace(scenario, cfg.logger)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		trace:    tr,
		selector: &selection.Selector{},
		logger:   cfg.logger,
	}

	result := NewResult()
	if err := h.executeSteps(scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	result.Final = h.dump()

	actx := &AssertionContext{
		Trace:    h.trace,
		Selector: h.selector,
		Warnings: len(h.trace.Warnings()),
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func loadTrace(scenario *Scenario, logger *slog.Logger) (*engine.Trace, error) {
	if scenario.Sample != "" {
		s, ok := samples.ByName(scenario.Sample)
		if !ok {
			return nil, fmt.Errorf("unknown sample %q", scenario.Sample)
		}
		tr, err := s.Trace(builder.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("build sample %q: %w", scenario.Sample, err)
		}
		return tr, nil
	}

	opts := []builder.LoadOption{builder.WithLoadLogger(logger)}
	if scenario.Partial {
		opts = append(opts, builder.WithPartialLoad())
	}
	tr, err := builder.LoadFile(scenario.Document, opts...)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return tr, nil
}

// executeSteps runs every step in order, recording the state after each.
func (h *Harness) executeSteps(steps []Step, result *Result) error {
	for i, step := range steps {
		op := step.Op()
		moved := true

		switch op {
		case OpNext:
			for n := 0; n < step.Next; n++ {
				if !h.trace.ApplyNext() {
					moved = false
					break
				}
			}
		case OpUndo:
			for n := 0; n < step.Undo; n++ {
				if !h.trace.ApplyUndo() {
					moved = false
					break
				}
			}
		case OpSeek:
			if err := h.trace.Seek(*step.Seek); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case OpSelect:
			if err := h.selector.Select(h.trace.Nodes(), step.Select...); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case OpClear:
			h.selector.Clear()
		default:
			return fmt.Errorf("step %d: no operation", i)
		}

		result.AddStep(StepResult{
			Op:      op,
			Counter: h.trace.Counter(),
			Moved:   moved,
			Dump:    h.dump(),
		})

		h.logger.Debug("scenario step completed",
			"step", i,
			"op", op,
			"counter", h.trace.Counter(),
			"moved", moved,
		)
	}
	return nil
}

// dump renders the live store, masked when a selection is active.
func (h *Harness) dump() string {
	return graph.Dump(h.trace.Counter(), h.selector.MaskIfAvailable(h.trace.Nodes()))
}
