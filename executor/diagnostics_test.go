package executor

import (
	"testing"

	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name    string
		locator scenario.Locator
		want    []string
	}{
		{
			name:    "role",
			locator: scenario.Locator{Strategy: scenario.StrategyRole, Role: "button", Name: "Buy"},
			want: []string{
				`page title: "Shop"`,
				`2 element(s) with role "button"`,
				`available names: "Add to cart", "Checkout"`,
			},
		},
		{
			name:    "text with no match lists headings",
			locator: scenario.Locator{Strategy: scenario.StrategyText, Text: "Sign out"},
			want: []string{
				`page title: "Shop"`,
				`0 element(s) containing text "Sign out" in the static markup`,
				`headings on page: "Welcome"`,
			},
		},
		{
			name:    "attribute",
			locator: scenario.Locator{Strategy: scenario.StrategyAttribute, Attribute: "data-testid", Value: "cart"},
			want: []string{
				`page title: "Shop"`,
				`1 element(s) with attribute "data-testid"`,
				`data-testid values: "help-link"`,
			},
		},
		{
			name:    "css",
			locator: scenario.Locator{Strategy: scenario.StrategyCSS, Selector: "a[href]"},
			want: []string{
				`page title: "Shop"`,
				`1 element(s) match selector "a[href]" in the static markup`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := Diagnose(testPage, tt.locator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestDiagnose_InvalidSelector(t *testing.T) {
	lines, err := Diagnose(testPage, scenario.Locator{Strategy: scenario.StrategyCSS, Selector: "div[[["})
	require.NoError(t, err)
	assert.Contains(t, lines, `0 element(s) match selector "div[[[" in the static markup`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
