// Package scenario defines the structured test cases executed against a live
// browser page: scenarios, their ordered steps and element locators.
package scenario

import (
	"encoding/json"
	"strings"
	"time"
)

// Action is the browser operation a step performs.
type Action string

const (
	ActionNavigate      Action = "navigate"
	ActionClick         Action = "click"
	ActionType          Action = "type"
	ActionAssertVisible Action = "assert-visible"
	ActionAssertHidden  Action = "assert-hidden"
	ActionAssertText    Action = "assert-text"
	ActionReadAttribute Action = "read-attribute"
	ActionReadText      Action = "read-text"
	ActionAssertURL     Action = "assert-url"
	ActionWait          Action = "wait"
	ActionScreenshot    Action = "screenshot"

	// ActionAssertAccessibleNames audits the whole page for buttons, inputs,
	// links and images without an accessible name.
	ActionAssertAccessibleNames Action = "assert-accessible-names"
	// ActionAssertTablistChildren checks that the direct children of the
	// tablists matched by an optional css locator carry the role in
	// Expected, "tab" when empty.
	ActionAssertTablistChildren Action = "assert-tablist-children"
)

// ParseAction normalises s ("assert_visible", "Assert-Visible") into an Action.
func ParseAction(s string) Action {
	return Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
}

func (a Action) IsValid() bool {
	switch a {
	case ActionNavigate, ActionClick, ActionType, ActionAssertVisible, ActionAssertHidden,
		ActionAssertText, ActionReadAttribute, ActionReadText, ActionAssertURL, ActionWait, ActionScreenshot,
		ActionAssertAccessibleNames, ActionAssertTablistChildren:
		return true
	}
	return false
}

// NeedsLocator reports whether the action operates on a page element.
func (a Action) NeedsLocator() bool {
	switch a {
	case ActionClick, ActionType, ActionAssertVisible, ActionAssertHidden,
		ActionAssertText, ActionReadAttribute, ActionReadText:
		return true
	}
	return false
}

// Strategy selects how a Locator finds its element.
type Strategy string

const (
	StrategyRole      Strategy = "role"
	StrategyText      Strategy = "text"
	StrategyAttribute Strategy = "attribute"
	StrategyCSS       Strategy = "css"
)

// Locator describes an element on the page. Which fields apply depends on
// Strategy: Role and Name for role, Text for text, Attribute and Value for
// attribute, Selector for css.
type Locator struct {
	Strategy  Strategy `json:"strategy" yaml:"strategy"`
	Role      string   `json:"role,omitempty" yaml:"role,omitempty"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Text      string   `json:"text,omitempty" yaml:"text,omitempty"`
	Attribute string   `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Value     string   `json:"value,omitempty" yaml:"value,omitempty"`
	Selector  string   `json:"selector,omitempty" yaml:"selector,omitempty"`
	Exact     bool     `json:"exact,omitempty" yaml:"exact,omitempty"`
}

// String renders the locator for logs and reports.
func (l Locator) String() string {
	switch l.Strategy {
	case StrategyRole:
		if l.Name != "" {
			return "role=" + l.Role + "[name=" + l.Name + "]"
		}
		return "role=" + l.Role
	case StrategyText:
		return "text=" + l.Text
	case StrategyAttribute:
		return "[" + l.Attribute + "=" + l.Value + "]"
	case StrategyCSS:
		return "css=" + l.Selector
	}
	return string(l.Strategy)
}

// Step is one atomic browser action plus its expected condition.
//
// Value carries the URL for navigate, the text for type and the label for
// screenshot. Expected carries the text, attribute value or URL fragment the
// assert and read actions compare against.
type Step struct {
	Action    Action   `json:"action" yaml:"action"`
	Locator   *Locator `json:"locator,omitempty" yaml:"locator,omitempty"`
	Value     string   `json:"value,omitempty" yaml:"value,omitempty"`
	Attribute string   `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Expected  string   `json:"expected,omitempty" yaml:"expected,omitempty"`
	TimeoutMS int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// UnmarshalJSON normalises the action spelling.
func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Action = ParseAction(string(p.Action))
	*s = Step(p)
	return nil
}

// Timeout returns the step's wait budget, falling back to def.
func (s Step) Timeout(def time.Duration) time.Duration {
	if s.TimeoutMS > 0 {
		return time.Duration(s.TimeoutMS) * time.Millisecond
	}
	return def
}

// Describe renders the step for logs and reports.
func (s Step) Describe() string {
	var b strings.Builder
	b.WriteString(string(s.Action))
	if s.Locator != nil {
		b.WriteString(" ")
		b.WriteString(s.Locator.String())
	}
	if s.Value != "" && s.Action != ActionType {
		b.WriteString(" ")
		b.WriteString(s.Value)
	}
	if s.Expected != "" {
		b.WriteString(" expecting ")
		b.WriteString(strings.TrimSpace(s.Expected))
	}
	return b.String()
}

// Criteria are the branding and UX checks attached during enrichment.
type Criteria struct {
	Branding []string `json:"branding_checks,omitempty" yaml:"branding_checks,omitempty"`
	UX       []string `json:"ux_checks,omitempty" yaml:"ux_checks,omitempty"`
}

// All returns every check with its category prefix.
func (c Criteria) All() []string {
	out := make([]string, 0, len(c.Branding)+len(c.UX))
	for _, b := range c.Branding {
		out = append(out, "branding: "+b)
	}
	for _, u := range c.UX {
		out = append(out, "ux: "+u)
	}
	return out
}

func (c Criteria) IsEmpty() bool {
	return len(c.Branding) == 0 && len(c.UX) == 0
}

// Scenario is one independently evaluable test case.
type Scenario struct {
	ID             string   `json:"scenario_id" yaml:"scenario_id"`
	Description    string   `json:"description" yaml:"description"`
	Component      string   `json:"component,omitempty" yaml:"component,omitempty"`
	Steps          []Step   `json:"steps" yaml:"steps"`
	ExpectedResult string   `json:"expected_result,omitempty" yaml:"expected_result,omitempty"`
	Criteria       Criteria `json:"validation_criteria,omitempty" yaml:"validation_criteria,omitempty"`
}

// Clone returns a deep copy of s.
func (s Scenario) Clone() Scenario {
	out := s
	out.Steps = make([]Step, len(s.Steps))
	for i, st := range s.Steps {
		if st.Locator != nil {
			loc := *st.Locator
			st.Locator = &loc
		}
		out.Steps[i] = st
	}
	out.Criteria = Criteria{
		Branding: append([]string(nil), s.Criteria.Branding...),
		UX:       append([]string(nil), s.Criteria.UX...),
	}
	return out
}

// CloneAll deep copies a scenario list.
func CloneAll(in []Scenario) []Scenario {
	if in == nil {
		return nil
	}
	out := make([]Scenario, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
