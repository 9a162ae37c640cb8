package harness

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseFlow  = "flow"
)

// OutcomeSuccess is the outcome of a step that succeeded. Failed steps
// report their error code.
const OutcomeSuccess = "success"

// TraceEvent records one executed step and the history depth after it.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Phase   string `json:"phase"`
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
	Undo    int    `json:"undo"`
	Redo    int    `json:"redo"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
