package agent

import "fmt"

// ModelError reports a failed model call. Err is typically an
// *llm.APIError or a transport error.
type ModelError struct {
	Iteration int
	Err       error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Err)
}

// Unwrap returns the underlying failure.
func (e *ModelError) Unwrap() error { return e.Err }
