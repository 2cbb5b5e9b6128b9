package pipeline

import (
	"fmt"
	"strings"

	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/tidwall/gjson"
)

// Requirements is the structured form of a testing request.
type Requirements struct {
	Website             string   `json:"website"`
	Components          []string `json:"components"`
	BrandingGuidelines  string   `json:"branding_guidelines"`
	UXConsiderations    string   `json:"ux_considerations"`
	SpecialInstructions string   `json:"special_instructions"`
}

func (r Requirements) clone() Requirements {
	r.Components = append([]string(nil), r.Components...)
	return r
}

// defaultRequirements is used when no completer is configured.
func defaultRequirements(input, website string) Requirements {
	return Requirements{
		Website:             website,
		Components:          []string{},
		BrandingGuidelines:  "default",
		UXConsiderations:    "default",
		SpecialInstructions: input,
	}
}

// parseRequirements reads requirements from completion JSON. Models are
// loose with shapes, so components may be a list or a single string.
func parseRequirements(raw string) Requirements {
	doc := gjson.Parse(raw)
	req := Requirements{
		Website:             doc.Get("website").String(),
		Components:          []string{},
		BrandingGuidelines:  stringOr(doc.Get("branding_guidelines"), "default"),
		UXConsiderations:    stringOr(doc.Get("ux_considerations"), "default"),
		SpecialInstructions: stringOr(doc.Get("special_instructions"), "none"),
	}

	comps := doc.Get("components")
	switch {
	case comps.IsArray():
		comps.ForEach(func(_, v gjson.Result) bool {
			if c := strings.TrimSpace(v.String()); c != "" {
				req.Components = append(req.Components, c)
			}
			return true
		})
	case comps.Type == gjson.String:
		if c := strings.TrimSpace(comps.String()); c != "" {
			req.Components = append(req.Components, c)
		}
	}
	return req
}

func stringOr(v gjson.Result, def string) string {
	if s := strings.TrimSpace(v.String()); s != "" {
		return s
	}
	return def
}

// defaultScenarios builds one scenario per component, or a single
// homepage check when no components were named. Each opens the website
// and waits for the body so the evidence screenshot shows a loaded page.
func defaultScenarios(req Requirements, website string) []scenario.Scenario {
	open := func() []scenario.Step {
		return []scenario.Step{
			{Action: scenario.ActionNavigate, Value: website},
			{Action: scenario.ActionAssertVisible, Locator: &scenario.Locator{Strategy: scenario.StrategyCSS, Selector: "body"}},
		}
	}

	if len(req.Components) == 0 {
		return []scenario.Scenario{{
			ID:             "baseline_homepage",
			Description:    fmt.Sprintf("Open %s homepage and capture screenshot", website),
			Steps:          open(),
			ExpectedResult: "The homepage loads",
		}}
	}

	out := make([]scenario.Scenario, 0, len(req.Components))
	for i, comp := range req.Components {
		out = append(out, scenario.Scenario{
			ID:             fmt.Sprintf("comp_%d", i+1),
			Description:    fmt.Sprintf("Open %s and capture state for component: %s", website, comp),
			Component:      comp,
			Steps:          open(),
			ExpectedResult: "The page loads",
		})
	}
	return out
}

// Scenario IDs of the checks added for accessibility requests.
const (
	accessibleNamesScenarioID = "a11y_accessible_names"
	tablistRolesScenarioID    = "a11y_tablist_children_roles"
)

// withAccessibilityChecks adds markup audits for requests that ask about
// accessibility: the accessible-name audit runs last, and a tablist roles
// check runs first when the request is about tablist children. Checks the
// plan already contains are not added twice.
func withAccessibilityChecks(scenarios []scenario.Scenario, input, website string) []scenario.Scenario {
	if !asksForAccessibility(input) {
		return scenarios
	}
	open := scenario.Step{Action: scenario.ActionNavigate, Value: website}

	if asksForTablistRoles(input) && !hasAction(scenarios, scenario.ActionAssertTablistChildren) {
		tablist := scenario.Scenario{
			ID:             tablistRolesScenarioID,
			Description:    "Verify the direct children of each tablist expose the tab role",
			Steps:          []scenario.Step{open, {Action: scenario.ActionAssertTablistChildren}},
			ExpectedResult: "Every tablist child has role=tab",
		}
		scenarios = append([]scenario.Scenario{tablist}, scenarios...)
	}

	if !hasAction(scenarios, scenario.ActionAssertAccessibleNames) {
		scenarios = append(scenarios, scenario.Scenario{
			ID:             accessibleNamesScenarioID,
			Description:    fmt.Sprintf("Audit %s for elements without accessible names", website),
			Steps:          []scenario.Step{open, {Action: scenario.ActionAssertAccessibleNames}},
			ExpectedResult: "Interactive elements and images have accessible names",
		})
	}
	return scenarios
}

func hasAction(scenarios []scenario.Scenario, action scenario.Action) bool {
	for _, sc := range scenarios {
		for _, st := range sc.Steps {
			if st.Action == action {
				return true
			}
		}
	}
	return false
}
