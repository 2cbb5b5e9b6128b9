package pipeline

import (
	"context"
	"fmt"
)

// Stage names, in the order the orchestrator runs them.
const (
	StageRequirements = "requirements"
	StagePlanning     = "planning"
	StageEnrichment   = "enrichment"
	StageExecution    = "execution"
	StageAnalysis     = "analysis"
	StageReporting    = "reporting"
)

// Stage is one step of the pipeline. A stage reads what earlier stages
// wrote and returns the state with its own fields added.
type Stage interface {
	Name() string
	Run(ctx context.Context, s State) (State, error)
}

// StageError is a stage failure as returned by the orchestrator.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageFailure records in the state which stage ended the run and why.
type StageFailure struct {
	Stage string
	Err   error
}

// Cause returns the failure message.
func (f StageFailure) Cause() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}
