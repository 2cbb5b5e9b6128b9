// Package analysis condenses execution results into pass/fail counts.
package analysis

import (
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
)

// Result is the overall verdict of a run.
type Result string

const (
	ResultPass    Result = "Pass"
	ResultFail    Result = "Fail"
	ResultUnknown Result = "Unknown"
)

// Counts holds the headline numbers of a run.
type Counts struct {
	TotalScenarios int    `json:"total_scenarios"`
	Passed         int    `json:"passed"`
	Failed         int    `json:"failed"`
	OverallResult  Result `json:"overall_result"`
}

// Detail is the per-scenario line of a summary.
type Detail struct {
	ScenarioID     string          `json:"scenario_id"`
	Description    string          `json:"description"`
	Result         executor.Status `json:"result"`
	Issues         []string        `json:"issues"`
	Notes          []string        `json:"notes,omitempty"`
	ScreenshotPath string          `json:"screenshot_path,omitempty"`
}

// Summary is the analysed view of a run's execution results.
type Summary struct {
	Summary Counts   `json:"summary"`
	Details []Detail `json:"details"`
}

// Summarize counts passes and failures. With no results the overall result
// is Unknown. The input is not modified.
func Summarize(results []executor.ExecutionResult) Summary {
	s := Summary{Details: make([]Detail, 0, len(results))}
	for _, r := range results {
		d := Detail{
			ScenarioID:     r.ScenarioID,
			Description:    r.Description,
			Result:         r.Status,
			Issues:         []string{},
			Notes:          append([]string(nil), r.Notes...),
			ScreenshotPath: r.Screenshot,
		}
		if r.Passed() {
			s.Summary.Passed++
		} else {
			d.Result = executor.StatusFail
			d.Issues = r.Issues()
			s.Summary.Failed++
		}
		s.Details = append(s.Details, d)
	}

	s.Summary.TotalScenarios = len(results)
	switch {
	case len(results) == 0:
		s.Summary.OverallResult = ResultUnknown
	case s.Summary.Failed == 0:
		s.Summary.OverallResult = ResultPass
	default:
		s.Summary.OverallResult = ResultFail
	}
	return s
}

// WithFailure returns a copy of s whose overall result is Fail, used when
// a stage failed after some scenarios had already run.
func (s Summary) WithFailure() Summary {
	out := s.Clone()
	out.Summary.OverallResult = ResultFail
	return out
}

// Clone returns a deep copy of s.
func (s Summary) Clone() Summary {
	out := Summary{Summary: s.Summary}
	if s.Details != nil {
		out.Details = make([]Detail, len(s.Details))
		for i, d := range s.Details {
			d.Issues = append([]string{}, d.Issues...)
			d.Notes = append([]string(nil), d.Notes...)
			out.Details[i] = d
		}
	}
	return out
}

// RootCauses gives the possible causes worth investigating for s.
func RootCauses(s Summary) []string {
	if s.Summary.Failed > 0 {
		return []string{"Scenario execution failures detected; review selectors, auth, and page timing."}
	}
	if s.Summary.TotalScenarios == 0 {
		return []string{"No scenarios were executed."}
	}
	return []string{"No failures observed in executed scenarios."}
}
