package workflow

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for errors.Is matching of the typed errors below.
var (
	ErrNavigation        = errors.New("navigation failed")
	ErrElementTimeout    = errors.New("element not visible in time")
	ErrFieldFill         = errors.New("field fill failed")
	ErrSubmit            = errors.New("submit failed")
	ErrNavigationTimeout = errors.New("network did not settle in time")
	ErrValidation        = errors.New("submission outcome could not be determined")
)

// NavigationError wraps a failure to open the form URL.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to '%s': %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() []error { return []error{ErrNavigation, e.Err} }

// ElementTimeoutError reports an element that never became visible while loading.
type ElementTimeoutError struct {
	Locator string
	Timeout time.Duration
	Err     error
}

func (e *ElementTimeoutError) Error() string {
	return fmt.Sprintf("element '%s' not visible within %s: %v", e.Locator, e.Timeout, e.Err)
}

func (e *ElementTimeoutError) Unwrap() []error { return []error{ErrElementTimeout, e.Err} }

// FieldFillError reports the first field that could not be filled.
type FieldFillError struct {
	Locator string
	Role    string
	Err     error
}

func (e *FieldFillError) Error() string {
	return fmt.Sprintf("failed to fill %s field '%s': %v", e.Role, e.Locator, e.Err)
}

func (e *FieldFillError) Unwrap() []error { return []error{ErrFieldFill, e.Err} }

// SubmitError is raised once every click attempt has failed.
type SubmitError struct {
	Locator  string
	Attempts int
	Err      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to click submit '%s' after %d attempts: %v", e.Locator, e.Attempts, e.Err)
}

func (e *SubmitError) Unwrap() []error { return []error{ErrSubmit, e.Err} }

// NavigationTimeoutError reports that the network never went idle after the click.
type NavigationTimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("network not idle within %s after submit: %v", e.Timeout, e.Err)
}

func (e *NavigationTimeoutError) Unwrap() []error { return []error{ErrNavigationTimeout, e.Err} }

// ValidationError means the result page could not be read. It is distinct
// from a determined failure, which is reported through Outcome.
type ValidationError struct {
	Step string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("failed to read %s while confirming submission: %v", e.Step, e.Err)
}

func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, e.Err} }
