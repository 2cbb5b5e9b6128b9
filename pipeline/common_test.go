package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hairizuanbinnoorazman/validation-agent/auth"
	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/browser/browsertest"
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
	"github.com/hairizuanbinnoorazman/validation-agent/llm"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/run"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/hairizuanbinnoorazman/validation-agent/testutil"
)

// fakeCompleter answers by system prompt.
type fakeCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{replies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, system)
	if err := f.errs[system]; err != nil {
		return "", err
	}
	reply, ok := f.replies[system]
	if !ok {
		return "", errors.New("no reply configured")
	}
	return reply, nil
}

func (f *fakeCompleter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type harness struct {
	page         *browsertest.Page
	launcher     *browsertest.Launcher
	shots        *browsertest.Screenshots
	registry     *auth.Registry
	orchestrator *Orchestrator
	log          *logger.TestLogger
}

// newHarness wires the real stages over an in-memory page on which only
// elements matching present exist.
func newHarness(t *testing.T, completer llm.Completer, present ...string) *harness {
	t.Helper()
	log := logger.NewTestLogger()
	page := browsertest.NewPage()
	page.Evaluator = browsertest.Present(present...)
	launcher := browsertest.NewLauncher(page)
	shots := &browsertest.Screenshots{}
	manager := browser.NewManager(launcher, shots, browser.Config{}, log)
	registry := auth.NewRegistry(log)

	execution := NewExecutionStage(
		manager,
		executor.NewExecutor(manager, scenario.Limits{}, log),
		auth.NewCoordinator(manager, registry, log),
		log,
	)
	return &harness{
		page:         page,
		launcher:     launcher,
		shots:        shots,
		registry:     registry,
		orchestrator: NewOrchestrator(StandardStages(completer, 0, execution, log), ReportingStage{}, log),
		log:          log,
	}
}

func setupRunStore(t *testing.T) run.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &run.Run{})
	return run.NewMySQLStore(db, logger.NewTestLogger())
}

func visible(selector string) scenario.Step {
	return scenario.Step{
		Action:  scenario.ActionAssertVisible,
		Locator: &scenario.Locator{Strategy: scenario.StrategyCSS, Selector: selector},
	}
}

func checkScenario(id, selector string) scenario.Scenario {
	return scenario.Scenario{ID: id, Description: "check " + selector, Steps: []scenario.Step{visible(selector)}}
}
