package platform

import (
	"fmt"
)

// NotConfiguredError is returned when a platform has no implementation string
// for the requested operation.
type NotConfiguredError struct {
	Operation string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("adapter operation %q is not configured", e.Operation)
}

// NotFoundError is returned when a local adapter slug is not registered, or
// the registered adapter has no function for the requested operation.
type NotFoundError struct {
	Slug      string
	Operation string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("adapter %q has no operation %q", e.Slug, e.Operation)
}

// ExecutionError wraps a failure from an adapter call with the operation and
// platform it targeted. Callers decide whether to retry; the dispatcher never
// does.
type ExecutionError struct {
	Operation string
	Platform  string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("adapter operation %q failed for platform %q: %v", e.Operation, e.Platform, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
