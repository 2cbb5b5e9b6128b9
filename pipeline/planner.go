package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hairizuanbinnoorazman/validation-agent/llm"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/tidwall/gjson"
)

// ErrNoScenarios is returned when planning produced nothing to execute.
var ErrNoScenarios = errors.New("no scenarios planned")

// PlanningStage produces the scenarios to execute.
type PlanningStage struct {
	completer llm.Completer
	logger    logger.Logger
}

// NewPlanningStage creates a PlanningStage. Without a completer scenarios
// are built from the requirement components.
func NewPlanningStage(completer llm.Completer, log logger.Logger) *PlanningStage {
	return &PlanningStage{
		completer: completer,
		logger:    log,
	}
}

func (p *PlanningStage) Name() string { return StagePlanning }

func (p *PlanningStage) Run(ctx context.Context, s State) (State, error) {
	if provided := s.ProvidedScenarios(); len(provided) > 0 {
		p.logger.Info(ctx, "using provided scenarios", map[string]interface{}{
			"run_id":    s.RunID(),
			"scenarios": len(provided),
		})
		return s.WithScenarios(provided)
	}

	req, _ := s.Requirements()
	var (
		scenarios []scenario.Scenario
		err       error
	)
	if p.completer == nil {
		scenarios = defaultScenarios(req, s.Website())
	} else {
		scenarios, err = p.plan(ctx, req, s.Website())
		if err != nil {
			return s, err
		}
	}
	if len(scenarios) == 0 {
		return s, ErrNoScenarios
	}
	scenarios = withAccessibilityChecks(scenarios, s.Input(), s.Website())

	p.logger.Info(ctx, "scenarios planned", map[string]interface{}{
		"run_id":    s.RunID(),
		"scenarios": len(scenarios),
	})
	return s.WithScenarios(scenarios)
}

func (p *PlanningStage) plan(ctx context.Context, req Requirements, website string) ([]scenario.Scenario, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode requirements: %w", err)
	}

	completion, err := p.completer.Complete(ctx, llm.PlanningSystem, llm.PlanningPrompt(string(reqJSON), website))
	if err != nil {
		return nil, fmt.Errorf("failed to plan scenarios: %w", err)
	}
	raw, err := llm.ExtractJSON(completion)
	if err != nil {
		return nil, fmt.Errorf("failed to parse planned scenarios: %w", err)
	}
	return parseScenarios(raw)
}

// parseScenarios accepts either a bare array or an object holding the
// array under "scenarios".
func parseScenarios(raw string) ([]scenario.Scenario, error) {
	doc := gjson.Parse(raw)
	if doc.IsObject() {
		doc = doc.Get("scenarios")
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of scenarios", llm.ErrNoJSON)
	}

	var scenarios []scenario.Scenario
	if err := json.Unmarshal([]byte(doc.Raw), &scenarios); err != nil {
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}
	return scenarios, nil
}
