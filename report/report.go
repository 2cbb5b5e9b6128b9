// Package report renders the human-readable summary of a run.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/analysis"
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
)

// Input is everything a report is rendered from.
type Input struct {
	RunID       string
	Website     string
	GeneratedAt time.Time
	Summary     analysis.Summary

	// FailedStage and FailureCause are set when the run stopped early.
	FailedStage  string
	FailureCause string

	RootCauses []string
}

const reportTemplate = `UI/UX and Branding Test Report
Website: {{or .Website "(not provided)"}}
Run ID: {{.RunID}}
Generated on: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}

Overall Result: {{.Summary.Summary.OverallResult}}
Total Scenarios: {{.Summary.Summary.TotalScenarios}}
Passed: {{.Summary.Summary.Passed}}
Failed: {{.Summary.Summary.Failed}}
{{- if .FailedStage}}

Run Failure:
  Stage: {{.FailedStage}}
  Cause: {{.FailureCause}}
{{- end}}

Detailed Results:
--------------------------------
{{- range .Summary.Details}}
Scenario ID: {{.ScenarioID}}
Description: {{.Description}}
Result: {{mark .Result}} {{.Result}}
Screenshot: {{or .ScreenshotPath "(none)"}}
{{- if .Issues}}
Issues:
{{- range .Issues}}
  - {{.}}
{{- end}}
{{- end}}
{{- if .Notes}}
Validation Criteria:
{{- range .Notes}}
  - {{.}}
{{- end}}
{{- end}}
--------------------------------
{{- else}}
No scenarios were executed.
--------------------------------
{{- end}}
{{- if .RootCauses}}

Possible Root Causes:
{{- range .RootCauses}}
  - {{.}}
{{- end}}
{{- end}}
`

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"mark": func(s executor.Status) string {
		if s == executor.StatusPass {
			return "[PASS]"
		}
		return "[FAIL]"
	},
}).Parse(reportTemplate))

// Render produces the plain-text report.
func Render(in Input) (string, error) {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}
	in.FailureCause = strings.TrimSpace(in.FailureCause)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// Fallback is the minimal report used when rendering itself fails, so a
// run always ends with some report.
func Fallback(in Input, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "UI/UX and Branding Test Report\nWebsite: %s\nRun ID: %s\n", in.Website, in.RunID)
	fmt.Fprintf(&b, "Overall Result: %s\n", in.Summary.Summary.OverallResult)
	if in.FailedStage != "" {
		fmt.Fprintf(&b, "Run failed at stage %s: %s\n", in.FailedStage, in.FailureCause)
	}
	if err != nil {
		fmt.Fprintf(&b, "Report rendering failed: %v\n", err)
	}
	return b.String()
}
