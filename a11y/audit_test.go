package a11y

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rules(findings []Finding) []Rule {
	out := make([]Rule, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Rule)
	}
	return out
}

func TestAuditNames(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []Rule
	}{
		{
			name: "named controls pass",
			html: `<button>Save</button>
				<button aria-label="Close"><svg></svg></button>
				<input type="submit" value="Send">
				<label for="email">Email</label><input id="email" type="email">
				<label>Name <input type="text"></label>
				<input type="search" placeholder="Search">
				<input type="hidden" name="csrf">
				<a href="/pricing">Pricing plans</a>
				<img src="logo.png" alt="">
				<img src="spacer.gif" role="presentation">`,
			want: []Rule{},
		},
		{
			name: "icon button without name",
			html: `<button class="icon close"><svg></svg></button>`,
			want: []Rule{RuleButtonName},
		},
		{
			name: "input without label",
			html: `<label for="other">Other</label><input id="email" type="email"><textarea name="bio"></textarea>`,
			want: []Rule{RuleInputLabel, RuleInputLabel},
		},
		{
			name: "vague links",
			html: `<a href="/a">click here</a><a href="/b">Go</a><a href="/c"></a><a href="/d" title="Docs">more</a>`,
			want: []Rule{RuleLinkText, RuleLinkText, RuleLinkText},
		},
		{
			name: "image without alt",
			html: `<img src="/hero.jpg"><img src="/team.jpg" aria-label="Our team">`,
			want: []Rule{RuleImageAlt},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := AuditNames("<html><body>" + tt.html + "</body></html>")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rules(findings))
		})
	}
}

func TestAuditNames_Describe(t *testing.T) {
	findings, err := AuditNames(`<body><button id="burger"></button><img src="/x.png"><input name="q"></body>`)
	require.NoError(t, err)
	require.Len(t, findings, 3)
	assert.Equal(t, "button#burger", findings[0].Selector)
	assert.Equal(t, `input[name="q"]`, findings[1].Selector)
	assert.Equal(t, `img[src="/x.png"]`, findings[2].Selector)
}

func TestCheckTablistChildren(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		selector string
		role     string
		want     []Rule
	}{
		{
			name: "tabs pass",
			html: `<div role="tablist"><button role="tab">One</button><button role="tab">Two</button></div>`,
			want: []Rule{},
		},
		{
			name: "child without role",
			html: `<div role="tablist"><button role="tab">One</button><button>Two</button></div>`,
			want: []Rule{RuleTablistRole},
		},
		{
			name: "empty tablist",
			html: `<div role="tablist"></div>`,
			want: []Rule{RuleTablistRole},
		},
		{
			name: "no tablist",
			html: `<nav><a href="/">Home</a></nav>`,
			want: []Rule{RuleTablistAbsent},
		},
		{
			name:     "scoped selector and custom role",
			html:     `<div id="filters" role="tablist"><div role="group">A</div><div role="group">B</div></div><div role="tablist"><span>x</span></div>`,
			selector: "#filters",
			role:     "group",
			want:     []Rule{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := CheckTablistChildren(tt.html, tt.selector, tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rules(findings))
		})
	}
}

func TestSummarize(t *testing.T) {
	var findings []Finding
	for i := 0; i < 7; i++ {
		findings = append(findings, Finding{Rule: RuleImageAlt, Selector: "img"})
	}
	findings = append(findings, Finding{Rule: RuleButtonName, Selector: "button#menu"})

	got := Summarize(findings)

	assert.True(t, strings.HasPrefix(got, "1 button(s) without accessible names: button#menu; "))
	assert.Contains(t, got, "7 image(s) without alt text")
	assert.Contains(t, got, "and 2 more")
	assert.Empty(t, Summarize(nil))
}
