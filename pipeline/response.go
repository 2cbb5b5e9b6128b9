package pipeline

import (
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/analysis"
	"github.com/hairizuanbinnoorazman/validation-agent/report"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// Response is the outbound payload of a run.
type Response struct {
	RunID           string           `json:"run_id"`
	Intent          Intent           `json:"intent"`
	FinalReport     string           `json:"final_report"`
	AnalysedResults analysis.Summary `json:"analysed_results"`
	WorkflowResults WorkflowResults  `json:"workflow_results"`
	FailedStage     string           `json:"failed_stage,omitempty"`
	Error           string           `json:"error,omitempty"`
	RootCauses      []string         `json:"root_causes,omitempty"`
}

// WorkflowResults carries what the early stages produced, for callers that
// want more than the report.
type WorkflowResults struct {
	Requirements      *Requirements       `json:"requirements,omitempty"`
	EnrichedScenarios []scenario.Scenario `json:"enriched_scenarios"`
	BrandingNotes     string              `json:"branding_notes,omitempty"`
	UXNotes           string              `json:"ux_notes,omitempty"`
}

func workflowResults(s State) WorkflowResults {
	wr := WorkflowResults{EnrichedScenarios: s.Executable()}
	if wr.EnrichedScenarios == nil {
		wr.EnrichedScenarios = []scenario.Scenario{}
	}
	if req, ok := s.Requirements(); ok {
		wr.Requirements = &req
		wr.BrandingNotes = req.BrandingGuidelines
		wr.UXNotes = req.UXConsiderations
	}
	return wr
}

// NewResponse builds the response for a finished state.
func NewResponse(s State) Response {
	summary := effectiveSummary(s)
	resp := Response{
		RunID:           s.RunID(),
		Intent:          s.Intent(),
		FinalReport:     s.Report(),
		AnalysedResults: summary,
		WorkflowResults: workflowResults(s),
		RootCauses:      rootCauses(s, summary),
	}
	if f, ok := s.Failure(); ok {
		resp.FailedStage = f.Stage
		resp.Error = f.Cause()
	}
	return resp
}

// effectiveSummary is the analysis when it ran, otherwise a summary of
// whatever results exist. A failed run is never reported as passing.
func effectiveSummary(s State) analysis.Summary {
	summary, ok := s.Analysis()
	if !ok {
		summary = analysis.Summarize(s.Results())
	}
	if _, failed := s.Failure(); failed {
		summary = summary.WithFailure()
	}
	return summary
}

func reportInput(s State) report.Input {
	summary := effectiveSummary(s)
	in := report.Input{
		RunID:       s.RunID(),
		Website:     s.Website(),
		GeneratedAt: time.Now(),
		Summary:     summary,
		RootCauses:  rootCauses(s, summary),
	}
	if f, ok := s.Failure(); ok {
		in.FailedStage = f.Stage
		in.FailureCause = f.Cause()
	}
	return in
}

func rootCauses(s State, summary analysis.Summary) []string {
	causes := analysis.RootCauses(summary)
	if f, ok := s.Failure(); ok {
		causes = append([]string{fmt.Sprintf("Run stopped during %s: %s", f.Stage, f.Cause())}, causes...)
	}
	return causes
}
