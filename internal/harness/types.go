package harness

import "strings"

// StepResult records the state right after one step.
type StepResult struct {
	Op      string `json:"op"`
	Counter int    `json:"counter"`
	// Moved is false when a next/undo/seek step hit a boundary before
	// moving as far as asked.
	Moved bool   `json:"moved"`
	Dump  string `json:"dump"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed step.
	Steps []StepResult `json:"steps"`

	// Final is the dump after the last step, masked when a selection is
	// active.
	Final string `json:"final"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step record.
func (r *Result) AddStep(step StepResult) {
	r.Steps = append(r.Steps, step)
}

// Snapshot is the golden-file form of the result: the final dump followed
// by a newline.
func (r *Result) Snapshot() []byte {
	var b strings.Builder
	b.WriteString(r.Final)
	b.WriteString("\n")
	return []byte(b.String())
}
