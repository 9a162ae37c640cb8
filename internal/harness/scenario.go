package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one drill conformance scenario.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Setup steps build the starting document. Each must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow steps are the steps under test.
	Flow []Step `yaml:"flow"`

	// Assertions check the final document.
	Assertions []Assertion `yaml:"assertions"`
}

// Step invokes one drill operation.
type Step struct {
	// Action is the operation name, e.g. "create_pages".
	Action string `yaml:"action"`

	// Args holds the operation arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect is the expected outcome: "success" or an error code. Empty
	// means the outcome is not checked.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion checks the final document.
type Assertion struct {
	// Type is one of row_count, page_order, history or final_state.
	Type string `yaml:"type"`

	// Table is the document table (row_count, final_state).
	Table string `yaml:"table,omitempty"`

	// Count is the expected number of rows (row_count).
	Count *int `yaml:"count,omitempty"`

	// Pages is the expected timeline, first page included (page_order).
	Pages []int64 `yaml:"pages,omitempty"`

	// Undo and Redo are the expected group counts (history).
	Undo *int `yaml:"undo,omitempty"`
	Redo *int `yaml:"redo,omitempty"`

	// Where selects exactly one row (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect holds the column values the row must carry (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion types.
const (
	AssertRowCount   = "row_count"
	AssertPageOrder  = "page_order"
	AssertHistory    = "history"
	AssertFinalState = "final_state"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos surface instead of being ignored.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

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

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Action == "" {
		return fmt.Errorf("action is required")
	}
	if _, ok := actions[step.Action]; !ok {
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertRowCount:
		if a.Table == "" || a.Count == nil {
			return fmt.Errorf("row_count needs table and count")
		}
	case AssertPageOrder:
		if len(a.Pages) == 0 {
			return fmt.Errorf("page_order needs pages")
		}
	case AssertHistory:
		if a.Undo == nil && a.Redo == nil {
			return fmt.Errorf("history needs undo or redo")
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("final_state needs table")
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("final_state needs expect")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
