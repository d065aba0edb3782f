package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Step    string         `json:"step"`
	Outcome string         `json:"outcome"` // "ok" or an error code
	Detail  map[string]any `json:"detail,omitempty"`
	Calls   []string       `json:"calls,omitempty"`
}

// State is the register after the last step.
type State struct {
	Pending   int              `json:"pending"`
	Remote    map[string]int   `json:"remote"`
	Stock     map[string]int64 `json:"stock"`
	CartLines int              `json:"cart_lines"`
	CartTotal string           `json:"cart_total"`
	Toasts    []string         `json:"toasts"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every step in order.
	Trace []TraceEvent `json:"trace"`

	// Calls is the full remote call log after setup.
	Calls []string `json:"calls"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final register state.
	State State `json:"state"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
