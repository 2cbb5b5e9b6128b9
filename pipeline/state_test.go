package pipeline

import (
	"testing"

	"github.com/hairizuanbinnoorazman/validation-agent/analysis"
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SettersRefuseOverwrite(t *testing.T) {
	s := NewState("run-1", "check login", "https://example.com", AuthConfig{Kind: AuthNone}, nil)

	tests := []struct {
		name string
		set  func(State) (State, error)
	}{
		{"intent", func(s State) (State, error) { return s.WithIntent(IntentUX) }},
		{"requirements", func(s State) (State, error) { return s.WithRequirements(Requirements{}) }},
		{"scenarios", func(s State) (State, error) { return s.WithScenarios(nil) }},
		{"enriched", func(s State) (State, error) { return s.WithEnrichedScenarios(nil) }},
		{"results", func(s State) (State, error) { return s.WithResults(nil) }},
		{"analysis", func(s State) (State, error) { return s.WithAnalysis(analysis.Summary{}) }},
		{"report", func(s State) (State, error) { return s.WithReport("") }},
		{"failure", func(s State) (State, error) { return s.WithFailure(StageFailure{Stage: StagePlanning}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := tt.set(s)
			require.NoError(t, err)

			_, err = tt.set(first)
			assert.ErrorIs(t, err, ErrFieldAlreadySet)
		})
	}
}

func TestState_IsImmutable(t *testing.T) {
	base := NewState("run-1", "", "https://example.com", AuthConfig{}, nil)
	planned := []scenario.Scenario{checkScenario("a", "#a")}

	next, err := base.WithScenarios(planned)
	require.NoError(t, err)

	planned[0].ID = "mutated"
	assert.Equal(t, "a", next.Scenarios()[0].ID)
	assert.Empty(t, base.Scenarios())

	got := next.Scenarios()
	got[0].Steps[0].Locator.Selector = "#changed"
	assert.Equal(t, "#a", next.Scenarios()[0].Steps[0].Locator.Selector)
}

func TestState_Executable(t *testing.T) {
	s := NewState("run-1", "", "https://example.com", AuthConfig{}, nil)
	s, err := s.WithScenarios([]scenario.Scenario{checkScenario("planned", "#a")})
	require.NoError(t, err)
	assert.Equal(t, "planned", s.Executable()[0].ID)

	s, err = s.WithEnrichedScenarios([]scenario.Scenario{checkScenario("enriched", "#a")})
	require.NoError(t, err)
	assert.Equal(t, "enriched", s.Executable()[0].ID)
}

func TestState_ResultsCopied(t *testing.T) {
	results := []executor.ExecutionResult{{ScenarioID: "a", Status: executor.StatusPass, Notes: []string{"n"}}}
	s, err := NewState("run-1", "", "https://example.com", AuthConfig{}, nil).WithResults(results)
	require.NoError(t, err)

	results[0].Notes[0] = "changed"
	assert.Equal(t, "n", s.Results()[0].Notes[0])
	assert.True(t, s.HasResults())
}
