package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted playback session over one trace.
// Steps move the counter or the selection; assertions check the final
// state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Document is a path to a JSON, YAML or CUE trace document.
	// Relative paths are resolved against the scenario file.
	Document string `yaml:"document,omitempty"`

	// Sample names a built-in sample instead of a document.
	Sample string `yaml:"sample,omitempty"`

	// Partial loads the document in partial mode.
	Partial bool `yaml:"partial,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the state after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one playback action. Exactly one field is set.
type Step struct {
	Next   int   `yaml:"next,omitempty"`
	Undo   int   `yaml:"undo,omitempty"`
	Seek   *int  `yaml:"seek,omitempty"`
	Select []int `yaml:"select,omitempty"`
	Clear  bool  `yaml:"clear,omitempty"`
}

// Step operation names.
const (
	OpNext   = "next"
	OpUndo   = "undo"
	OpSeek   = "seek"
	OpSelect = "select"
	OpClear  = "clear"
)

// Op returns the name of the operation the step performs, or "" when none
// or more than one field is set.
func (s Step) Op() string {
	var ops []string
	if s.Next != 0 {
		ops = append(ops, OpNext)
	}
	if s.Undo != 0 {
		ops = append(ops, OpUndo)
	}
	if s.Seek != nil {
		ops = append(ops, OpSeek)
	}
	if s.Select != nil {
		ops = append(ops, OpSelect)
	}
	if s.Clear {
		ops = append(ops, OpClear)
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "counter": counter equals Value
	// - "code": node Node has code Code
	// - "absent": node Node is not in the store
	// - "destinations": node Node has exactly IDs as destinations
	// - "origins": node Node has exactly IDs as origins
	// - "masked": the active mask is exactly IDs
	// - "warnings": Value logic warnings were raised
	// - "round_trip": a full replay brings every position back unchanged
	Type string `yaml:"type"`

	Node  *int    `yaml:"node,omitempty"`
	Value *int    `yaml:"value,omitempty"`
	Code  *string `yaml:"code,omitempty"`
	IDs   []int   `yaml:"ids,omitempty"`
}

// Assertion type constants.
const (
	AssertCounter      = "counter"
	AssertCode         = "code"
	AssertAbsent       = "absent"
	AssertDestinations = "destinations"
	AssertOrigins      = "origins"
	AssertMasked       = "masked"
	AssertWarnings     = "warnings"
	AssertRoundTrip    = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative Document path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}
	if scenario.Document != "" {
		if _, err := os.Stat(scenario.Document); os.IsNotExist(err) {
			return nil, &DocumentNotFoundError{Scenario: scenario.Name, Path: scenario.Document}
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
// Document paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Document == "") == (s.Sample == "") {
		return fmt.Errorf("exactly one of document or sample is required")
	}

	if s.Partial && s.Document == "" {
		return fmt.Errorf("partial only applies to documents")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Op() {
		case "":
			return fmt.Errorf("steps[%d]: exactly one of next, undo, seek, select, clear is required", i)
		case OpNext:
			if step.Next < 0 {
				return fmt.Errorf("steps[%d]: next must be positive", i)
			}
		case OpUndo:
			if step.Undo < 0 {
				return fmt.Errorf("steps[%d]: undo must be positive", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCounter, AssertWarnings:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertCode:
		if a.Node == nil || a.Code == nil {
			return fmt.Errorf("assertions[%d]: node and code are required for code", index)
		}
	case AssertAbsent:
		if a.Node == nil {
			return fmt.Errorf("assertions[%d]: node is required for absent", index)
		}
	case AssertDestinations, AssertOrigins:
		if a.Node == nil || a.IDs == nil {
			return fmt.Errorf("assertions[%d]: node and ids are required for %s", index, a.Type)
		}
	case AssertMasked:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for masked", index)
		}
	case AssertRoundTrip:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
