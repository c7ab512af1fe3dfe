package models

import "fmt"

// ValidationError rejects an invalid mutation synchronously: an illegal
// state transition, a missing required field, a nonexistent slot or a
// duplicate vehicle code. It is never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SideEffectError wraps a failure in an external sink (labor tracking,
// workflow audit, notification). The state transition that triggered the
// side effect stays committed; the error is logged and surfaced as a
// warning only.
type SideEffectError struct {
	Op  string
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("%s side effect failed: %v", e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() error {
	return e.Err
}
