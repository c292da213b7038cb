package engine

// Call statuses recorded in the trace.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CallRecord captures one capability dispatch made during a run. Every
// dispatch is recorded, win or lose, for observability.
type CallRecord struct {
	// Namespace and Operation identify the capability that was called.
	Namespace string `json:"namespace"`
	Operation string `json:"operation"`

	// Args contains the keyword arguments passed to the call.
	Args map[string]any `json:"args,omitempty"`

	// Value is the normalized result of a successful call.
	Value any `json:"value,omitempty"`

	// Error is the failure message when the call did not succeed.
	Error string `json:"error,omitempty"`

	// Status is "success" or "error".
	Status string `json:"status"`

	// DurationMs is the call's execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// Outcome is the result of one script run.
type Outcome struct {
	// Value is the script's result: the reserved result binding if the
	// script set it, otherwise the value of its trailing expression,
	// otherwise nil. Always within the closed serializable shape set.
	Value any `json:"value,omitempty"`

	// Format is the script's format directive, or empty when unset.
	// Unrecognized directives pass through here; the serializer falls
	// back silently.
	Format string `json:"format,omitempty"`

	// Stdout contains output printed by the script.
	Stdout string `json:"stdout,omitempty"`

	// Trace records every capability dispatch in call order.
	Trace []CallRecord `json:"trace,omitempty"`

	// DurationMs is the total run time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}
