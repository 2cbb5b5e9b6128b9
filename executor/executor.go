// Package executor runs scenarios step by step against an open browser
// session. A failing scenario never prevents the next one from running.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// Session is the part of the session manager the executor drives.
type Session interface {
	Perform(ctx context.Context, h *browser.Handle, st scenario.Step) browser.StepOutcome
	Screenshot(ctx context.Context, h *browser.Handle, label string) string
	PageHTML(ctx context.Context, h *browser.Handle) (string, error)
}

// Executor runs scenarios.
type Executor struct {
	session Session
	limits  scenario.Limits
	logger  logger.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(session Session, limits scenario.Limits, log logger.Logger) *Executor {
	if limits.MaxSteps <= 0 || limits.MaxTimeoutMS <= 0 {
		limits = scenario.DefaultLimits()
	}
	return &Executor{
		session: session,
		limits:  limits,
		logger:  log,
	}
}

// Execute runs every scenario in order and returns one result per
// scenario, in the same order. Once ctx ends the remaining scenarios are
// recorded as timed out without touching the browser.
func (e *Executor) Execute(ctx context.Context, h *browser.Handle, scenarios []scenario.Scenario) []ExecutionResult {
	results := make([]ExecutionResult, 0, len(scenarios))
	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			results = append(results, e.skipped(sc, err))
			continue
		}

		log := e.logger.WithFields(map[string]interface{}{
			"scenario_id": sc.ID,
			"position":    i + 1,
			"total":       len(scenarios),
		})
		log.Info(ctx, "executing scenario", nil)

		res := e.executeOne(ctx, h, sc)
		recordScenario(res)

		fields := map[string]interface{}{
			"status":      string(res.Status),
			"steps_run":   len(res.Steps),
			"duration_ms": res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
		}
		if res.Passed() {
			log.Info(ctx, "scenario passed", fields)
		} else {
			fields["failure_kind"] = string(res.FailureKind)
			fields["error"] = res.Error
			log.Warn(ctx, "scenario failed", fields)
		}
		results = append(results, res)
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, h *browser.Handle, sc scenario.Scenario) ExecutionResult {
	rec := newRecorder(sc)

	if err := sc.ValidateWithLimits(e.limits); err != nil {
		rec.fail(browser.FailureActionError, "scenario is malformed: %v", err)
		return e.finish(ctx, h, sc, rec, "fail")
	}

	for i, st := range sc.Steps {
		out := e.session.Perform(ctx, h, st)
		rec.step(out)
		if out.OK {
			continue
		}

		rec.fail(out.Failure, "step %d (%s) failed: %s", i+1, st.Describe(), out.Detail)
		if out.Failure == browser.FailureElementNotFound && st.Locator != nil {
			rec.diagnose(e.diagnostics(ctx, h, *st.Locator))
		}
		return e.finish(ctx, h, sc, rec, "fail")
	}
	return e.finish(ctx, h, sc, rec, "pass")
}

// finish takes the scenario's single evidence screenshot and seals the
// result.
func (e *Executor) finish(ctx context.Context, h *browser.Handle, sc scenario.Scenario, rec *recorder, outcome string) ExecutionResult {
	ref := e.session.Screenshot(ctx, h, screenshotLabel(sc.ID, outcome))
	res, err := rec.seal(ref)
	if err != nil {
		e.logger.Error(ctx, "execution result sealed twice", map[string]interface{}{"scenario_id": sc.ID})
	}
	return res
}

func (e *Executor) diagnostics(ctx context.Context, h *browser.Handle, loc scenario.Locator) []string {
	html, err := e.session.PageHTML(ctx, h)
	if err != nil {
		e.logger.Debug(ctx, "page HTML unavailable for diagnostics", map[string]interface{}{"error": err.Error()})
		return nil
	}
	lines, err := Diagnose(html, loc)
	if err != nil {
		e.logger.Debug(ctx, "failed to analyse page HTML", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return lines
}

func (e *Executor) skipped(sc scenario.Scenario, cause error) ExecutionResult {
	rec := newRecorder(sc)
	rec.fail(browser.FailureTimeout, "scenario not started: %v", cause)
	res, _ := rec.seal("")
	recordScenario(res)
	return res
}

func screenshotLabel(scenarioID, outcome string) string {
	id := strings.TrimSpace(scenarioID)
	if id == "" {
		id = fmt.Sprintf("scenario-%d", time.Now().UnixNano())
	}
	return id + "-" + outcome
}
