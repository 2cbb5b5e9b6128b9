package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// ErrRecorderSealed is returned when a sealed recorder is written to.
var ErrRecorderSealed = errors.New("execution result already sealed")

// Status is the overall outcome of a scenario.
type Status string

const (
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	return s == StatusPass || s == StatusFail
}

// StepResult records one performed step.
type StepResult struct {
	Index       int                 `json:"index"`
	Description string              `json:"description"`
	Success     bool                `json:"success"`
	Value       string              `json:"value,omitempty"`
	Failure     browser.FailureKind `json:"failure,omitempty"`
	Detail      string              `json:"detail,omitempty"`
	DurationMS  int64               `json:"duration_ms"`
}

// ExecutionResult is the sealed record of one scenario run.
type ExecutionResult struct {
	ScenarioID  string              `json:"scenario_id"`
	Description string              `json:"description"`
	Steps       []StepResult        `json:"steps"`
	Status      Status              `json:"status"`
	Screenshot  string              `json:"screenshot_path,omitempty"`
	Error       string              `json:"error,omitempty"`
	FailureKind browser.FailureKind `json:"failure_kind,omitempty"`
	Notes       []string            `json:"notes,omitempty"`
	Diagnostics []string            `json:"diagnostics,omitempty"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
}

// Passed reports whether the scenario passed.
func (r ExecutionResult) Passed() bool {
	return r.Status == StatusPass
}

// Issues lists the problems worth surfacing for a scenario.
func (r ExecutionResult) Issues() []string {
	var issues []string
	if r.Error != "" {
		issues = append(issues, r.Error)
	}
	issues = append(issues, r.Diagnostics...)
	return issues
}

// Clone returns a deep copy of r.
func (r ExecutionResult) Clone() ExecutionResult {
	out := r
	out.Steps = append([]StepResult(nil), r.Steps...)
	out.Notes = append([]string(nil), r.Notes...)
	out.Diagnostics = append([]string(nil), r.Diagnostics...)
	return out
}

// CloneResults deep copies a result list.
func CloneResults(in []ExecutionResult) []ExecutionResult {
	if in == nil {
		return nil
	}
	out := make([]ExecutionResult, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// recorder accumulates the result of the scenario being executed. Once
// sealed it rejects further writes.
type recorder struct {
	result ExecutionResult
	sealed bool
}

func newRecorder(sc scenario.Scenario) *recorder {
	r := &recorder{
		result: ExecutionResult{
			ScenarioID:  sc.ID,
			Description: sc.Description,
			Steps:       []StepResult{},
			StartedAt:   time.Now(),
		},
	}
	for _, b := range sc.Criteria.Branding {
		r.result.Notes = append(r.result.Notes, "Branding check recorded: "+b)
	}
	for _, u := range sc.Criteria.UX {
		r.result.Notes = append(r.result.Notes, "UX check recorded: "+u)
	}
	return r
}

func (r *recorder) step(out browser.StepOutcome) error {
	if r.sealed {
		return ErrRecorderSealed
	}
	r.result.Steps = append(r.result.Steps, StepResult{
		Index:       len(r.result.Steps) + 1,
		Description: out.Step.Describe(),
		Success:     out.OK,
		Value:       out.Value,
		Failure:     out.Failure,
		Detail:      out.Detail,
		DurationMS:  out.Duration.Milliseconds(),
	})
	return nil
}

func (r *recorder) fail(kind browser.FailureKind, format string, args ...interface{}) error {
	if r.sealed {
		return ErrRecorderSealed
	}
	r.result.Status = StatusFail
	r.result.FailureKind = kind
	r.result.Error = fmt.Sprintf(format, args...)
	return nil
}

func (r *recorder) diagnose(lines []string) error {
	if r.sealed {
		return ErrRecorderSealed
	}
	r.result.Diagnostics = append(r.result.Diagnostics, lines...)
	return nil
}

// seal finalises the result. A scenario that never failed is a pass.
func (r *recorder) seal(screenshot string) (ExecutionResult, error) {
	if r.sealed {
		return ExecutionResult{}, ErrRecorderSealed
	}
	r.sealed = true
	if r.result.Status == "" {
		r.result.Status = StatusPass
	}
	r.result.Screenshot = screenshot
	r.result.FinishedAt = time.Now()
	return r.result.Clone(), nil
}
