package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tracegraph/internal/engine"
	"github.com/roach88/tracegraph/internal/selection"
)

// AssertionError is returned when an assertion fails.
// It includes the final dump to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Dump     string // Final state for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Dump != "" {
		fmt.Fprintf(&buf, "\nFinal state:\n%s\n", e.Dump)
	}

	return buf.String()
}

// AssertionContext provides the playback state assertions read.
type AssertionContext struct {
	Trace    *engine.Trace
	Selector *selection.Selector
	// Warnings is the number of logic warnings raised by the steps.
	Warnings int
}

// EvaluateAssertions evaluates all assertions against the playback state.
// Returns a slice of error messages for failed assertions.
//
// round_trip replays the whole trace and leaves it at its counter; its own
// warnings do not count towards a warnings assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	if actx == nil || actx.Trace == nil {
		return []string{"assertions require a trace"}
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCounter:
			err = assertCounter(actx, assertion, result.Final)
		case AssertCode:
			err = assertCode(actx, assertion, result.Final)
		case AssertAbsent:
			err = assertAbsent(actx, assertion, result.Final)
		case AssertDestinations, AssertOrigins:
			err = assertAdjacency(actx, assertion, result.Final)
		case AssertMasked:
			err = assertMasked(actx, assertion, result.Final)
		case AssertWarnings:
			err = assertWarnings(actx, assertion)
		case AssertRoundTrip:
			err = assertRoundTrip(actx)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertCounter(actx *AssertionContext, a Assertion, dump string) error {
	if got := actx.Trace.Counter(); got != *a.Value {
		return &AssertionError{
			Type:     AssertCounter,
			Expected: fmt.Sprintf("counter %d", *a.Value),
			Actual:   fmt.Sprintf("counter %d", got),
			Dump:     dump,
		}
	}
	return nil
}

func assertCode(actx *AssertionContext, a Assertion, dump string) error {
	n, ok := actx.Trace.Nodes()[*a.Node]
	if !ok {
		return &AssertionError{
			Type:     AssertCode,
			Expected: fmt.Sprintf("node %d with code %q", *a.Node, *a.Code),
			Actual:   "node not present",
			Dump:     dump,
		}
	}
	if n.Code != *a.Code {
		return &AssertionError{
			Type:     AssertCode,
			Expected: fmt.Sprintf("node %d with code %q", *a.Node, *a.Code),
			Actual:   fmt.Sprintf("code %q", n.Code),
			Dump:     dump,
		}
	}
	return nil
}

func assertAbsent(actx *AssertionContext, a Assertion, dump string) error {
	if actx.Trace.Nodes().Has(*a.Node) {
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("node %d absent", *a.Node),
			Actual:   "node present",
			Dump:     dump,
		}
	}
	return nil
}

func assertAdjacency(actx *AssertionContext, a Assertion, dump string) error {
	n, ok := actx.Trace.Nodes()[*a.Node]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %d with %s %v", *a.Node, a.Type, a.IDs),
			Actual:   "node not present",
			Dump:     dump,
		}
	}

	got := n.Destinations
	if a.Type == AssertOrigins {
		got = n.Origins
	}
	if !sameSet(got, a.IDs) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %d with %s %v", *a.Node, a.Type, a.IDs),
			Actual:   fmt.Sprintf("%s %v", a.Type, got),
			Dump:     dump,
		}
	}
	return nil
}

func assertMasked(actx *AssertionContext, a Assertion, dump string) error {
	if actx.Selector == nil || !actx.Selector.Active() {
		return &AssertionError{
			Type:     AssertMasked,
			Expected: fmt.Sprintf("mask %v", a.IDs),
			Actual:   "no active selection",
			Dump:     dump,
		}
	}
	if got := actx.Selector.Mask(); !sameSet(got, a.IDs) {
		return &AssertionError{
			Type:     AssertMasked,
			Expected: fmt.Sprintf("mask %v", a.IDs),
			Actual:   fmt.Sprintf("mask %v", got),
			Dump:     dump,
		}
	}
	return nil
}

func assertWarnings(actx *AssertionContext, a Assertion) error {
	if actx.Warnings != *a.Value {
		return &AssertionError{
			Type:     AssertWarnings,
			Expected: fmt.Sprintf("%d logic warnings", *a.Value),
			Actual:   fmt.Sprintf("%d logic warnings", actx.Warnings),
		}
	}
	return nil
}

func assertRoundTrip(actx *AssertionContext) error {
	report, err := actx.Trace.Replay()
	if err != nil {
		return fmt.Errorf("round_trip: %w", err)
	}
	if !report.OK() {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "every position restored by undo",
			Actual:   fmt.Sprintf("positions %v differ", report.Mismatches),
		}
	}
	return nil
}

// sameSet compares two id lists ignoring order.
func sameSet(a, b []int) bool {
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
