package pipeline

import "strings"

// Intent is the broad kind of check a request asks for.
type Intent string

const (
	IntentA11y     Intent = "a11y"
	IntentUX       Intent = "ux"
	IntentBranding Intent = "branding"
)

var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentA11y, []string{"accessibility", "a11y", "aria", "tablist", "screen reader", "contrast", "keyboard", "focus"}},
	{IntentUX, []string{"ux", "user experience", "usability", "onboarding", "tooltip", "cta", "navigation"}},
	{IntentBranding, []string{"brand", "branding", "logo", "palette", "typography"}},
}

// ClassifyIntent picks the first intent whose keywords appear in text.
// Accessibility wins ties and is the fallback.
func ClassifyIntent(text string) Intent {
	if intent, ok := matchIntent(text); ok {
		return intent
	}
	return IntentA11y
}

func matchIntent(text string) (Intent, bool) {
	t := strings.ToLower(text)
	for _, group := range intentKeywords {
		for _, k := range group.keywords {
			if strings.Contains(t, k) {
				return group.intent, true
			}
		}
	}
	return "", false
}

// asksForAccessibility reports whether text names an accessibility concern
// outright, as opposed to falling back to it.
func asksForAccessibility(text string) bool {
	intent, ok := matchIntent(text)
	return ok && intent == IntentA11y
}

// asksForTablistRoles reports whether text is about the roles of a
// tablist's children.
func asksForTablistRoles(text string) bool {
	t := strings.ToLower(text)
	if !strings.Contains(t, "tablist") {
		return false
	}
	for _, k := range []string{"child", "role", "search"} {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// Enriches reports whether scenarios for this intent get branding and UX
// checks attached.
func (i Intent) Enriches() bool {
	return i == IntentUX || i == IntentBranding
}
