package pipeline

import (
	"errors"
	"fmt"

	"github.com/hairizuanbinnoorazman/validation-agent/analysis"
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// ErrFieldAlreadySet is returned when a stage writes a field a previous
// stage already owns.
var ErrFieldAlreadySet = errors.New("state field already set")

// State is the value threaded through every stage of a run. It is
// immutable: each With method returns an updated copy and refuses to
// overwrite a field that was already written.
type State struct {
	runID    string
	input    string
	website  string
	auth     AuthConfig
	provided []scenario.Scenario

	intent       Intent
	requirements *Requirements
	scenarios    []scenario.Scenario
	enriched     []scenario.Scenario
	results      []executor.ExecutionResult
	analysis     *analysis.Summary
	report       *string
	failure      *StageFailure

	scenariosSet bool
	enrichedSet  bool
	resultsSet   bool
}

// NewState creates the initial state of a run. provided scenarios, when
// non-empty, replace planning.
func NewState(runID, input, website string, auth AuthConfig, provided []scenario.Scenario) State {
	return State{
		runID:    runID,
		input:    input,
		website:  website,
		auth:     auth,
		provided: scenario.CloneAll(provided),
	}
}

// RunID returns the identifier of the run.
func (s State) RunID() string { return s.runID }

// Input returns the user's request text.
func (s State) Input() string { return s.input }

// Website returns the target URL.
func (s State) Website() string { return s.website }

// Auth returns the run's authentication settings.
func (s State) Auth() AuthConfig { return s.auth }

// Intent returns the classified intent, or "" before classification.
func (s State) Intent() Intent { return s.intent }

// ProvidedScenarios returns the scenarios supplied with the request.
func (s State) ProvidedScenarios() []scenario.Scenario {
	return scenario.CloneAll(s.provided)
}

// Requirements returns the extracted requirements, if any.
func (s State) Requirements() (Requirements, bool) {
	if s.requirements == nil {
		return Requirements{}, false
	}
	return s.requirements.clone(), true
}

// Scenarios returns the planned scenarios.
func (s State) Scenarios() []scenario.Scenario {
	return scenario.CloneAll(s.scenarios)
}

// EnrichedScenarios returns the scenarios after enrichment.
func (s State) EnrichedScenarios() []scenario.Scenario {
	return scenario.CloneAll(s.enriched)
}

// Executable returns the scenarios execution should run: the enriched
// set when enrichment ran, the planned set otherwise.
func (s State) Executable() []scenario.Scenario {
	if s.enrichedSet {
		return s.EnrichedScenarios()
	}
	return s.Scenarios()
}

// Results returns the execution results.
func (s State) Results() []executor.ExecutionResult {
	return executor.CloneResults(s.results)
}

// HasResults reports whether execution recorded its results.
func (s State) HasResults() bool { return s.resultsSet }

// Analysis returns the analysis summary, if analysis ran.
func (s State) Analysis() (analysis.Summary, bool) {
	if s.analysis == nil {
		return analysis.Summary{}, false
	}
	return s.analysis.Clone(), true
}

// Report returns the final report, or "" before reporting.
func (s State) Report() string {
	if s.report == nil {
		return ""
	}
	return *s.report
}

// Failure returns the stage failure that ended the run early, if any.
func (s State) Failure() (StageFailure, bool) {
	if s.failure == nil {
		return StageFailure{}, false
	}
	return *s.failure, true
}

func alreadySet(field string) error {
	return fmt.Errorf("%w: %s", ErrFieldAlreadySet, field)
}

// WithIntent records the classified intent.
func (s State) WithIntent(intent Intent) (State, error) {
	if s.intent != "" {
		return s, alreadySet("intent")
	}
	s.intent = intent
	return s, nil
}

// WithRequirements records the extracted requirements.
func (s State) WithRequirements(req Requirements) (State, error) {
	if s.requirements != nil {
		return s, alreadySet("requirements")
	}
	c := req.clone()
	s.requirements = &c
	return s, nil
}

// WithScenarios records the planned scenarios. An empty set still counts as written.
func (s State) WithScenarios(scenarios []scenario.Scenario) (State, error) {
	if s.scenariosSet {
		return s, alreadySet("scenarios")
	}
	s.scenarios = scenario.CloneAll(scenarios)
	s.scenariosSet = true
	return s, nil
}

// WithEnrichedScenarios records the scenarios after enrichment.
func (s State) WithEnrichedScenarios(scenarios []scenario.Scenario) (State, error) {
	if s.enrichedSet {
		return s, alreadySet("enriched scenarios")
	}
	s.enriched = scenario.CloneAll(scenarios)
	s.enrichedSet = true
	return s, nil
}

// WithResults records the execution results.
func (s State) WithResults(results []executor.ExecutionResult) (State, error) {
	if s.resultsSet {
		return s, alreadySet("results")
	}
	s.results = executor.CloneResults(results)
	s.resultsSet = true
	return s, nil
}

// WithAnalysis records the analysis summary.
func (s State) WithAnalysis(summary analysis.Summary) (State, error) {
	if s.analysis != nil {
		return s, alreadySet("analysis")
	}
	c := summary.Clone()
	s.analysis = &c
	return s, nil
}

// WithReport records the final report.
func (s State) WithReport(report string) (State, error) {
	if s.report != nil {
		return s, alreadySet("report")
	}
	s.report = &report
	return s, nil
}

// WithFailure records the stage failure that ends the run.
func (s State) WithFailure(f StageFailure) (State, error) {
	if s.failure != nil {
		return s, alreadySet("failure")
	}
	s.failure = &f
	return s, nil
}
