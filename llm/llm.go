// Package llm wraps the external text-completion service used to extract
// requirements, plan scenarios and enrich them with validation checks.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty completion")

	// ErrNoJSON is returned when a completion contains no JSON value.
	ErrNoJSON = errors.New("completion contains no JSON")

	// ErrInputTooLong is returned when user text exceeds the prompt limit.
	ErrInputTooLong = errors.New("input exceeds maximum length")
)

// Completer produces a text completion for a prompt. Implementations can
// use different backends (AWS Bedrock, a local stub, etc).
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
