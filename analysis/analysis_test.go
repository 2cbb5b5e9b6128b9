package analysis

import (
	"testing"

	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []executor.ExecutionResult {
	return []executor.ExecutionResult{
		{
			ScenarioID:  "SC001",
			Description: "Verify homepage logo.",
			Status:      executor.StatusPass,
			Screenshot:  "screenshots/SC001.png",
			Notes:       []string{"Branding check recorded: logo"},
		},
		{
			ScenarioID:  "SC002",
			Description: "Check navigation menu visibility.",
			Status:      executor.StatusFail,
			Screenshot:  "screenshots/SC002.png",
			Error:       "step 1 (assert-visible role=navigation) failed: not visible",
			FailureKind: browser.FailureAssertionFailed,
			Diagnostics: []string{"1 element(s) with role \"navigation\""},
		},
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		results []executor.ExecutionResult
		want    Counts
	}{
		{
			name:    "no scenarios",
			results: nil,
			want:    Counts{OverallResult: ResultUnknown},
		},
		{
			name:    "all passed",
			results: sampleResults()[:1],
			want:    Counts{TotalScenarios: 1, Passed: 1, OverallResult: ResultPass},
		},
		{
			name:    "one failed",
			results: sampleResults(),
			want:    Counts{TotalScenarios: 2, Passed: 1, Failed: 1, OverallResult: ResultFail},
		},
		{
			name:    "missing status counts as failure",
			results: []executor.ExecutionResult{{ScenarioID: "x"}},
			want:    Counts{TotalScenarios: 1, Failed: 1, OverallResult: ResultFail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.results)
			assert.Equal(t, tt.want, s.Summary)
			assert.Len(t, s.Details, len(tt.results))
			assert.Equal(t, s.Summary.TotalScenarios, s.Summary.Passed+s.Summary.Failed)
		})
	}
}

func TestSummarize_Details(t *testing.T) {
	s := Summarize(sampleResults())
	require.Len(t, s.Details, 2)

	assert.Equal(t, "SC001", s.Details[0].ScenarioID)
	assert.Equal(t, executor.StatusPass, s.Details[0].Result)
	assert.Empty(t, s.Details[0].Issues)
	assert.Equal(t, []string{"Branding check recorded: logo"}, s.Details[0].Notes)
	assert.Equal(t, "screenshots/SC001.png", s.Details[0].ScreenshotPath)

	assert.Equal(t, executor.StatusFail, s.Details[1].Result)
	assert.Equal(t, []string{
		"step 1 (assert-visible role=navigation) failed: not visible",
		"1 element(s) with role \"navigation\"",
	}, s.Details[1].Issues)
}

func TestSummarize_IsPure(t *testing.T) {
	results := sampleResults()
	before := executor.CloneResults(results)

	first := Summarize(results)
	first.Details[1].Issues[0] = "changed"
	second := Summarize(results)

	assert.Equal(t, before, results)
	assert.NotEqual(t, first, second)
	assert.Equal(t, Summarize(before), second)
}

func TestSummary_WithFailure(t *testing.T) {
	s := Summarize(sampleResults()[:1])
	failed := s.WithFailure()

	assert.Equal(t, ResultFail, failed.Summary.OverallResult)
	assert.Equal(t, ResultPass, s.Summary.OverallResult)
	assert.Equal(t, ResultFail, Summarize(nil).WithFailure().Summary.OverallResult)
}

func TestRootCauses(t *testing.T) {
	assert.Equal(t, []string{"Scenario execution failures detected; review selectors, auth, and page timing."},
		RootCauses(Summarize(sampleResults())))
	assert.Equal(t, []string{"No failures observed in executed scenarios."},
		RootCauses(Summarize(sampleResults()[:1])))
	assert.Equal(t, []string{"No scenarios were executed."}, RootCauses(Summarize(nil)))
}
