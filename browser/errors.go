package browser

import (
	"errors"
	"fmt"
)

var (
	ErrNavigation      = errors.New("navigation failed")
	ErrElementNotFound = errors.New("element not found")
	ErrTimeout         = errors.New("timed out")
	ErrAssertionFailed = errors.New("assertion failed")
	ErrAction          = errors.New("action failed")
	ErrSessionClosed   = errors.New("browser session closed")
	ErrLaunch          = errors.New("browser launch failed")
)

// FailureKind classifies a failed step.
type FailureKind string

const (
	FailureElementNotFound FailureKind = "ElementNotFound"
	FailureTimeout         FailureKind = "Timeout"
	FailureAssertionFailed FailureKind = "AssertionFailed"
	FailureActionError     FailureKind = "ActionError"
)

// Sentinel returns the package error matching the kind.
func (k FailureKind) Sentinel() error {
	switch k {
	case FailureElementNotFound:
		return ErrElementNotFound
	case FailureTimeout:
		return ErrTimeout
	case FailureAssertionFailed:
		return ErrAssertionFailed
	default:
		return ErrAction
	}
}

// StepError is the error form of a failed StepOutcome.
type StepError struct {
	Kind   FailureKind
	Detail string
}

func (e *StepError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *StepError) Unwrap() error {
	return e.Kind.Sentinel()
}
