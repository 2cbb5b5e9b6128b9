package scenario

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logoScenario() Scenario {
	return Scenario{
		ID:          "SC001",
		Description: "logo is visible",
		Steps: []Step{
			{Action: ActionAssertVisible, Locator: &Locator{Strategy: StrategyAttribute, Attribute: "alt", Value: "logo"}},
		},
	}
}

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"assert_visible":          ActionAssertVisible,
		" Assert-Text ":           ActionAssertText,
		"READ_ATTRIBUTE":          ActionReadAttribute,
		"navigate":                ActionNavigate,
		"assert_accessible_names": ActionAssertAccessibleNames,
		"hover":                   Action("hover"),
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseAction(in), in)
	}
	assert.False(t, Action("hover").IsValid())
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr error
	}{
		{name: "valid", mutate: func(*Scenario) {}},
		{name: "missing id", mutate: func(s *Scenario) { s.ID = " " }, wantErr: ErrMissingID},
		{name: "no steps", mutate: func(s *Scenario) { s.Steps = nil }, wantErr: ErrNoSteps},
		{name: "unknown action", mutate: func(s *Scenario) { s.Steps[0].Action = "hover" }, wantErr: ErrUnknownAction},
		{name: "missing locator", mutate: func(s *Scenario) { s.Steps[0].Locator = nil }, wantErr: ErrInvalidLocator},
		{name: "unknown strategy", mutate: func(s *Scenario) { s.Steps[0].Locator.Strategy = "xpath" }, wantErr: ErrInvalidLocator},
		{name: "role without role", mutate: func(s *Scenario) { s.Steps[0].Locator = &Locator{Strategy: StrategyRole} }, wantErr: ErrInvalidLocator},
		{
			name: "too many steps",
			mutate: func(s *Scenario) {
				for i := 0; i < 200; i++ {
					s.Steps = append(s.Steps, s.Steps[0])
				}
			},
			wantErr: ErrTooManySteps,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := logoScenario()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidScenario)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStep_ValidateActionFields(t *testing.T) {
	css := &Locator{Strategy: StrategyCSS, Selector: "#q"}
	tests := []struct {
		name    string
		step    Step
		wantErr bool
	}{
		{name: "navigate absolute", step: Step{Action: ActionNavigate, Value: "https://example.com/login"}},
		{name: "navigate relative", step: Step{Action: ActionNavigate, Value: "/login"}, wantErr: true},
		{name: "type with value", step: Step{Action: ActionType, Locator: css, Value: "hello"}},
		{name: "type without value", step: Step{Action: ActionType, Locator: css}, wantErr: true},
		{name: "assert-text without expected", step: Step{Action: ActionAssertText, Locator: css}, wantErr: true},
		{name: "read-attribute without attribute", step: Step{Action: ActionReadAttribute, Locator: css}, wantErr: true},
		{name: "assert-url", step: Step{Action: ActionAssertURL, Expected: "/dashboard"}},
		{name: "wait without timeout", step: Step{Action: ActionWait}, wantErr: true},
		{name: "wait over limit", step: Step{Action: ActionWait, TimeoutMS: 500000}, wantErr: true},
		{name: "screenshot", step: Step{Action: ActionScreenshot, Value: "home"}},
		{name: "accessible names", step: Step{Action: ActionAssertAccessibleNames}},
		{name: "tablist children default", step: Step{Action: ActionAssertTablistChildren}},
		{name: "tablist children css", step: Step{Action: ActionAssertTablistChildren, Locator: css, Expected: "group"}},
		{name: "tablist children role locator", step: Step{Action: ActionAssertTablistChildren, Locator: &Locator{Strategy: StrategyRole, Role: "tablist"}}, wantErr: true},
		{name: "tablist children empty selector", step: Step{Action: ActionAssertTablistChildren, Locator: &Locator{Strategy: StrategyCSS}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.validate(DefaultLimits())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStep_JSONNormalisesAction(t *testing.T) {
	var st Step
	require.NoError(t, json.Unmarshal([]byte(`{"action":"assert_visible","locator":{"strategy":"text","text":"Sign in"}}`), &st))
	assert.Equal(t, ActionAssertVisible, st.Action)
	assert.Equal(t, "text=Sign in", st.Locator.String())
}

func TestStep_Timeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, Step{}.Timeout(5*time.Second))
	assert.Equal(t, 250*time.Millisecond, Step{TimeoutMS: 250}.Timeout(5*time.Second))
}

func TestStep_Describe(t *testing.T) {
	st := Step{Action: ActionAssertText, Locator: &Locator{Strategy: StrategyRole, Role: "heading", Name: "Welcome"}, Expected: "Welcome back"}
	assert.Equal(t, "assert-text role=heading[name=Welcome] expecting Welcome back", st.Describe())

	typed := Step{Action: ActionType, Locator: &Locator{Strategy: StrategyCSS, Selector: "#pw"}, Value: "secret"}
	assert.NotContains(t, typed.Describe(), "secret")
}

func TestScenario_CloneIsDeep(t *testing.T) {
	orig := logoScenario()
	orig.Criteria = Criteria{Branding: []string{"logo top-left"}}

	c := orig.Clone()
	c.Steps[0].Locator.Value = "changed"
	c.Criteria.Branding[0] = "changed"

	assert.Equal(t, "logo", orig.Steps[0].Locator.Value)
	assert.Equal(t, "logo top-left", orig.Criteria.Branding[0])
	assert.Nil(t, CloneAll(nil))
}

func TestCriteria_All(t *testing.T) {
	c := Criteria{Branding: []string{"primary colours"}, UX: []string{"button visible"}}
	assert.Equal(t, []string{"branding: primary colours", "ux: button visible"}, c.All())
	assert.False(t, c.IsEmpty())
	assert.True(t, Criteria{}.IsEmpty())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlDoc := `
scenarios:
  - scenario_id: SC001
    description: logo visible
    steps:
      - action: assert_visible
        locator:
          strategy: attribute
          attribute: alt
          value: logo
`
	yamlPath := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0o600))

	got, err := LoadFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ActionAssertVisible, got[0].Steps[0].Action)
	assert.NoError(t, got[0].Validate())

	jsonPath := filepath.Join(dir, "s.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"scenario_id":"SC002","description":"d","steps":[{"action":"assert_url","expected":"/"}]}]`), 0o600))

	got, err = LoadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SC002", got[0].ID)
	assert.Equal(t, ActionAssertURL, got[0].Steps[0].Action)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
