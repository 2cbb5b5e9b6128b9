package llm

import "fmt"

// System instructions for each pipeline stage.
const (
	RequirementsSystem = "You're an expert test analyst extracting structured testing requirements."
	PlanningSystem     = "You're a senior QA engineer creating UI/UX test cases that a browser automation engine executes."
	EnrichmentSystem   = "You're a UX and branding QA assistant adding validation checks to test cases."
)

// User data is wrapped in XML-style tags to keep it apart from the
// instructions around it.

// RequirementsPrompt asks for structured requirements from a testing request.
func RequirementsPrompt(input, website string) string {
	return fmt.Sprintf(`Extract structured test requirements from the user request below.

<user_request>
%s
</user_request>
<website>%s</website>

<requirements>
Structured requirements should include:
- Website URL or page (if mentioned)
- UI elements or components to test
- Branding guidelines mentioned
- UX considerations
- Any special instructions or constraints

Output raw JSON only, with no explanation or markdown formatting:
{
  "website": "<URL or description>",
  "components": ["<component 1>", "<component 2>"],
  "branding_guidelines": "<guidelines or 'default'>",
  "ux_considerations": "<specific considerations or 'default'>",
  "special_instructions": "<instructions or 'none'>"
}
</requirements>`, input, website)
}

// PlanningPrompt asks for executable scenarios covering the requirements.
func PlanningPrompt(requirementsJSON, website string) string {
	return fmt.Sprintf(`Based on the following structured requirements, create test scenarios for automated UI/UX testing of %s.

<structured_requirements>
%s
</structured_requirements>

<requirements>
Each scenario must have:
- scenario_id: unique identifier such as "SC001"
- description: short and clear
- steps: ordered list of step objects (schema below)
- expected_result: what should happen

Step object fields:
- action: one of navigate, click, type, assert-visible, assert-hidden, assert-text, read-attribute, read-text, assert-url, wait, screenshot, assert-accessible-names, assert-tablist-children
- locator: required for click, type, assert-visible, assert-hidden, assert-text, read-attribute and read-text; optional css locator for assert-tablist-children
- value: the URL for navigate (absolute), the text for type, a label for screenshot
- attribute: the attribute name for read-attribute
- expected: the text for assert-text, the URL fragment for assert-url, an optional value for read-attribute, the child role for assert-tablist-children (default "tab")
- timeout_ms: optional wait budget; required for wait

Locator object fields, by strategy:
- {"strategy": "role", "role": "button", "name": "Sign in"} (preferred)
- {"strategy": "text", "text": "Welcome back"}
- {"strategy": "attribute", "attribute": "data-testid", "value": "cart"}
- {"strategy": "css", "selector": "nav a.active"} (last resort)
Add "exact": true for exact rather than case-insensitive contains matching.

The browser already shows the website when the first scenario starts. Keep scenarios independent of each other.

Output a raw JSON array only, with no explanation or markdown formatting:
[
  {
    "scenario_id": "SC001",
    "description": "...",
    "steps": [{"action": "assert-visible", "locator": {"strategy": "role", "role": "navigation"}}],
    "expected_result": "..."
  }
]
</requirements>`, website, requirementsJSON)
}

// EnrichmentPrompt asks for branding and UX checks per scenario.
func EnrichmentPrompt(scenariosJSON string) string {
	return fmt.Sprintf(`You are given UI test scenarios. Enrich each scenario with:
- branding_checks: specific visual or verbal identity elements (e.g. logo size, colour palette, font usage)
- ux_checks: layout, spacing, responsiveness, visibility, accessibility

<scenarios>
%s
</scenarios>

<requirements>
Respond with a raw JSON array only, one entry per scenario, reusing each scenario_id:
[
  {
    "scenario_id": "SC001",
    "branding_checks": ["Check logo placement", "Primary colours used"],
    "ux_checks": ["Button is visible", "Text contrast is high"]
  }
]
</requirements>`, scenariosJSON)
}
