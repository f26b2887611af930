package errors

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and returns it as an error,
// capturing the stack trace for diagnostics.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}

	var err error
	switch v := r.(type) {
	case error:
		err = v
	case string:
		err = fmt.Errorf("panic: %s", v)
	default:
		err = fmt.Errorf("panic: %v", v)
	}

	stackTrace := string(debug.Stack())
	return NewError("PANIC", "step panicked", SeverityRecoverable).
		WithCause(err).
		WithDetail("panic", true).
		WithDetail("stack_trace", stackTrace)
}
