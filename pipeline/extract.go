package pipeline

import (
	"context"
	"fmt"

	"github.com/hairizuanbinnoorazman/validation-agent/llm"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
)

// RequirementsStage turns the free-text request into Requirements and
// classifies its intent.
type RequirementsStage struct {
	completer      llm.Completer
	maxInputLength int
	logger         logger.Logger
}

// NewRequirementsStage creates a RequirementsStage. Without a completer
// the raw input becomes the only special instruction.
func NewRequirementsStage(completer llm.Completer, maxInputLength int, log logger.Logger) *RequirementsStage {
	return &RequirementsStage{
		completer:      completer,
		maxInputLength: maxInputLength,
		logger:         log,
	}
}

func (r *RequirementsStage) Name() string { return StageRequirements }

func (r *RequirementsStage) Run(ctx context.Context, s State) (State, error) {
	input, err := llm.SanitizeInput(s.Input(), r.maxInputLength)
	if err != nil {
		return s, fmt.Errorf("invalid input: %w", err)
	}

	intent := ClassifyIntent(input)
	req := defaultRequirements(input, s.Website())
	if r.completer != nil {
		completion, err := r.completer.Complete(ctx, llm.RequirementsSystem, llm.RequirementsPrompt(input, s.Website()))
		if err != nil {
			return s, fmt.Errorf("failed to extract requirements: %w", err)
		}
		raw, err := llm.ExtractJSON(completion)
		if err != nil {
			return s, fmt.Errorf("failed to parse requirements: %w", err)
		}
		req = parseRequirements(raw)
	}
	// The request's website always wins over whatever the model read.
	req.Website = s.Website()

	r.logger.Info(ctx, "requirements extracted", map[string]interface{}{
		"run_id":     s.RunID(),
		"intent":     string(intent),
		"components": len(req.Components),
	})

	if s, err = s.WithIntent(intent); err != nil {
		return s, err
	}
	return s.WithRequirements(req)
}
