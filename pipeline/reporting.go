package pipeline

import (
	"context"

	"github.com/hairizuanbinnoorazman/validation-agent/analysis"
	"github.com/hairizuanbinnoorazman/validation-agent/report"
)

// AnalysisStage summarises execution results.
type AnalysisStage struct{}

func (AnalysisStage) Name() string { return StageAnalysis }

func (AnalysisStage) Run(_ context.Context, s State) (State, error) {
	return s.WithAnalysis(analysis.Summarize(s.Results()))
}

// ReportingStage renders the final report from whatever the run reached.
type ReportingStage struct{}

func (ReportingStage) Name() string { return StageReporting }

func (ReportingStage) Run(_ context.Context, s State) (State, error) {
	in := reportInput(s)
	text, err := report.Render(in)
	if err != nil {
		text = report.Fallback(in, err)
	}
	return s.WithReport(text)
}
