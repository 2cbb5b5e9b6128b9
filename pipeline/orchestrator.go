// Package pipeline turns a testing request into an executed browser test
// and a report. The Orchestrator runs a fixed sequence of stages over an
// immutable State; a failing stage ends forward progress but the run is
// always reported.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/llm"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/report"
)

// Orchestrator runs stages in order, then the reporting stage.
type Orchestrator struct {
	stages    []Stage
	reporting Stage
	logger    logger.Logger
}

// NewOrchestrator creates an Orchestrator. reporting runs last on every
// path, including after a stage failure.
func NewOrchestrator(stages []Stage, reporting Stage, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		stages:    stages,
		reporting: reporting,
		logger:    log,
	}
}

// StandardStages returns the stages run before reporting, in order.
// completer may be nil, in which case the text-driven stages fall back to
// their built-in defaults.
func StandardStages(completer llm.Completer, maxInputLength int, execution *ExecutionStage, log logger.Logger) []Stage {
	return []Stage{
		NewRequirementsStage(completer, maxInputLength, log),
		NewPlanningStage(completer, log),
		NewEnrichmentStage(completer, log),
		execution,
		AnalysisStage{},
	}
}

// Run executes the pipeline once. It never returns without a report; the
// first stage error is recorded with WithFailure and skips the remaining
// stages.
func (o *Orchestrator) Run(ctx context.Context, s State) State {
	log := o.logger.WithField("run_id", s.RunID())
	log.Info(ctx, "starting pipeline", map[string]interface{}{
		"website": s.Website(),
		"auth":    string(s.Auth().Kind),
	})

	for _, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			s = o.fail(ctx, s, &StageError{Stage: stage.Name(), Err: err})
			break
		}

		next, err := o.runStage(ctx, stage, s)
		if err != nil {
			s = o.fail(ctx, s, err)
			break
		}
		s = next
	}

	s = o.report(ctx, s)

	summary := effectiveSummary(s)
	failedStage := ""
	if f, ok := s.Failure(); ok {
		failedStage = f.Stage
	}
	recordRun(string(summary.Summary.OverallResult), failedStage)
	log.Info(ctx, "pipeline finished", map[string]interface{}{
		"overall_result": string(summary.Summary.OverallResult),
		"failed_stage":   failedStage,
	})
	return s
}

// runStage runs one stage, converting a panic into a StageError.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, s State) (next State, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			next, err = s, fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			var se *StageError
			if !errors.As(err, &se) {
				err = &StageError{Stage: stage.Name(), Err: err}
			}
		}
		recordStage(stage.Name(), err, time.Since(start))
	}()

	o.logger.Debug(ctx, "running stage", map[string]interface{}{
		"run_id": s.RunID(),
		"stage":  stage.Name(),
	})
	return stage.Run(ctx, s)
}

func (o *Orchestrator) fail(ctx context.Context, s State, err error) State {
	var se *StageError
	if !errors.As(err, &se) {
		se = &StageError{Stage: "unknown", Err: err}
	}

	o.logger.Error(ctx, "stage failed", map[string]interface{}{
		"run_id": s.RunID(),
		"stage":  se.Stage,
		"error":  se.Err.Error(),
	})

	next, werr := s.WithFailure(StageFailure{Stage: se.Stage, Err: se.Err})
	if werr != nil {
		o.logger.Error(ctx, "failed to record stage failure", map[string]interface{}{
			"run_id": s.RunID(),
			"error":  werr.Error(),
		})
		return s
	}
	return next
}

// report runs the reporting stage detached from ctx so a cancelled run is
// still reported, falling back to a minimal report if rendering fails.
func (o *Orchestrator) report(ctx context.Context, s State) State {
	ctx = context.WithoutCancel(ctx)
	if o.reporting != nil {
		next, err := o.runStage(ctx, o.reporting, s)
		if err == nil && next.Report() != "" {
			return next
		}
		if err != nil {
			o.logger.Error(ctx, "reporting failed; using fallback report", map[string]interface{}{
				"run_id": s.RunID(),
				"error":  err.Error(),
			})
		}
	}

	next, err := s.WithReport(report.Fallback(reportInput(s), nil))
	if err != nil {
		return s
	}
	return next
}
