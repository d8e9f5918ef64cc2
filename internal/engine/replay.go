package engine

import (
	"fmt"
	"slices"
)

// ReplayReport is the outcome of a forward/backward round trip.
//
// Forward[k] is the graph digest at counter k on the way forward; every
// position is checked again on the way back. Mismatches lists the counters
// whose backward digest differs, ascending.
type ReplayReport struct {
	Steps      int      `json:"steps"`
	Forward    []string `json:"forward"`
	Mismatches []int    `json:"mismatches"`
	Warnings   int      `json:"warnings"`
}

// OK reports whether every position came back unchanged.
func (r ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay plays the whole log forwards and then undoes it, comparing the
// graph at every counter against the forward pass.
//
// The trace is left at the counter it started from. Warnings raised during
// the round trip are counted in the report and kept in Warnings().
func (t *Trace) Replay() (ReplayReport, error) {
	start := t.counter
	before := len(t.warnings)
	t.Reset()

	report := ReplayReport{
		Steps:      len(t.modifications),
		Forward:    make([]string, 0, len(t.modifications)+1),
		Mismatches: []int{},
	}

	d, err := t.Digest()
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: digest at 0: %w", err)
	}
	report.Forward = append(report.Forward, d)

	for t.ApplyNext() {
		d, err := t.Digest()
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay: digest at %d: %w", t.counter, err)
		}
		report.Forward = append(report.Forward, d)
	}

	for t.ApplyUndo() {
		d, err := t.Digest()
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay: digest at %d: %w", t.counter, err)
		}
		if d != report.Forward[t.counter] {
			report.Mismatches = append(report.Mismatches, t.counter)
		}
	}
	slices.Sort(report.Mismatches)

	report.Warnings = len(t.warnings) - before

	t.logger.Debug("replayed trace",
		"steps", report.Steps,
		"mismatches", len(report.Mismatches),
		"warnings", report.Warnings,
	)

	if err := t.Seek(start); err != nil {
		return ReplayReport{}, err
	}
	return report, nil
}
