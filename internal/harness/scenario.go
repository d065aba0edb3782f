package harness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/kasir/internal/remote"
	"github.com/roach88/kasir/internal/remote/memory"
)

// Scenario is one end-to-end register run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Locale selects the toast language ("id" or "en"). Defaults to "id".
	Locale string `yaml:"locale,omitempty"`

	// TaxPercentage is stored as the remote tax setting before the cart is
	// created. Empty means no setting, so the cart runs without tax.
	TaxPercentage string `yaml:"tax_percentage,omitempty"`

	// Offline starts the register without a connection.
	Offline bool `yaml:"offline,omitempty"`

	// Stock seeds remote stock rows.
	Stock []StockRow `yaml:"stock,omitempty"`

	// Rand is the sequence used for offline id suffixes. Defaults to 42.
	Rand []int `yaml:"rand,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// StockRow seeds one remote stock record.
type StockRow struct {
	ProductID string `yaml:"product_id"`
	Quantity  int    `yaml:"quantity"`
}

// Step is one action. Exactly one action field must be set.
type Step struct {
	Add      *AddStep      `yaml:"add,omitempty"`
	Update   *UpdateStep   `yaml:"update,omitempty"`
	Remove   string        `yaml:"remove,omitempty"`
	Discount string        `yaml:"discount,omitempty"`
	Customer *CustomerStep `yaml:"customer,omitempty"`
	Checkout *CheckoutStep `yaml:"checkout,omitempty"`
	Network  string        `yaml:"network,omitempty"`
	Sync     bool          `yaml:"sync,omitempty"`
	Fail     *FailStep     `yaml:"fail,omitempty"`

	// Expect checks the step's result. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// AddStep puts a product in the cart.
type AddStep struct {
	ProductID string `yaml:"product_id"`
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
	Stock     int    `yaml:"stock"`
	Quantity  int    `yaml:"quantity"`
}

// UpdateStep sets a line's quantity.
type UpdateStep struct {
	ProductID string `yaml:"product_id"`
	Quantity  int    `yaml:"quantity"`
}

// CustomerStep sets the customer name and notes.
type CustomerStep struct {
	Name  string `yaml:"name"`
	Notes string `yaml:"notes"`
}

// CheckoutStep commits the cart.
type CheckoutStep struct {
	Actor   string `yaml:"actor"`
	Payment string `yaml:"payment"`

	// OnlineOnly uses Commit instead of CommitWithFallback.
	OnlineOnly bool `yaml:"online_only,omitempty"`
}

// FailStep injects failures into the remote.
type FailStep struct {
	Op    string `yaml:"op"`
	Kind  string `yaml:"kind,omitempty"`
	Times int    `yaml:"times"`
}

// Expect specifies the expected step result. Only set fields are checked.
type Expect struct {
	// Error is the expected error code (see errorCode). Empty means success.
	Error string `yaml:"error,omitempty"`

	// Checkout results.
	ID      string `yaml:"id,omitempty"`
	Offline *bool  `yaml:"offline,omitempty"`
	Total   string `yaml:"total,omitempty"`

	// Sync results.
	Synced *int `yaml:"synced,omitempty"`
	Failed *int `yaml:"failed,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Count     *int     `yaml:"count,omitempty"`
	Kind      string   `yaml:"kind,omitempty"`
	ProductID string   `yaml:"product_id,omitempty"`
	Quantity  *int     `yaml:"quantity,omitempty"`
	Titles    []string `yaml:"titles,omitempty"`
	Calls     []string `yaml:"calls,omitempty"`
	Total     string   `yaml:"total,omitempty"`
}

// Assertion type constants.
const (
	AssertPendingCount = "pending_count"
	AssertRemoteCount  = "remote_count"
	AssertStock        = "stock"
	AssertToasts       = "toasts"
	AssertCallOrder    = "call_order"
	AssertCart         = "cart"
)

// Step names, as recorded in the trace.
const (
	StepAdd      = "add"
	StepUpdate   = "update"
	StepRemove   = "remove"
	StepDiscount = "discount"
	StepCustomer = "customer"
	StepCheckout = "checkout"
	StepNetwork  = "network"
	StepSync     = "sync"
	StepFail     = "fail"
)

// Name returns the action the step performs, or "" when none or more than
// one is set.
func (s Step) Name() string {
	var names []string
	if s.Add != nil {
		names = append(names, StepAdd)
	}
	if s.Update != nil {
		names = append(names, StepUpdate)
	}
	if s.Remove != "" {
		names = append(names, StepRemove)
	}
	if s.Discount != "" {
		names = append(names, StepDiscount)
	}
	if s.Customer != nil {
		names = append(names, StepCustomer)
	}
	if s.Checkout != nil {
		names = append(names, StepCheckout)
	}
	if s.Network != "" {
		names = append(names, StepNetwork)
	}
	if s.Sync {
		names = append(names, StepSync)
	}
	if s.Fail != nil {
		names = append(names, StepFail)
	}
	if len(names) != 1 {
		return ""
	}
	return names[0]
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
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
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.TaxPercentage != "" {
		if _, err := decimal.NewFromString(s.TaxPercentage); err != nil {
			return fmt.Errorf("tax_percentage: %w", err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch step.Name() {
	case "":
		return fmt.Errorf("steps[%d]: exactly one action is required", i)
	case StepAdd:
		if step.Add.ProductID == "" {
			return fmt.Errorf("steps[%d].add: product_id is required", i)
		}
		if _, err := decimal.NewFromString(step.Add.Price); err != nil {
			return fmt.Errorf("steps[%d].add: price: %w", i, err)
		}
	case StepDiscount:
		if _, err := decimal.NewFromString(step.Discount); err != nil {
			return fmt.Errorf("steps[%d].discount: %w", i, err)
		}
	case StepNetwork:
		if step.Network != "online" && step.Network != "offline" {
			return fmt.Errorf("steps[%d].network: must be online or offline, got %q", i, step.Network)
		}
	case StepFail:
		switch memory.Op(step.Fail.Op) {
		case memory.OpInsert, memory.OpUpdate, memory.OpSelect, memory.OpDelete:
		default:
			return fmt.Errorf("steps[%d].fail: unknown op %q", i, step.Fail.Op)
		}
		if step.Fail.Kind != "" && !remote.Kind(step.Fail.Kind).Valid() {
			return fmt.Errorf("steps[%d].fail: unknown kind %q", i, step.Fail.Kind)
		}
		if step.Fail.Times <= 0 {
			return fmt.Errorf("steps[%d].fail: times must be positive", i)
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
	case AssertPendingCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for pending_count", index)
		}
	case AssertRemoteCount:
		if !remote.Kind(a.Kind).Valid() {
			return fmt.Errorf("assertions[%d]: valid kind is required for remote_count", index)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for remote_count", index)
		}
	case AssertStock:
		if a.ProductID == "" || a.Quantity == nil {
			return fmt.Errorf("assertions[%d]: product_id and quantity are required for stock", index)
		}
	case AssertToasts:
		if len(a.Titles) == 0 {
			return fmt.Errorf("assertions[%d]: titles list is required for toasts", index)
		}
	case AssertCallOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for call_order", index)
		}
	case AssertCart:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for cart", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
