package browser_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/browser/browsertest"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*browser.Manager, *browsertest.Page, *browsertest.Launcher, *browsertest.Screenshots) {
	t.Helper()
	page := browsertest.NewPage()
	launcher := browsertest.NewLauncher(page)
	shots := &browsertest.Screenshots{}
	cfg := browser.Config{
		NavigationTimeout: time.Second,
		StepTimeout:       50 * time.Millisecond,
		EvalGrace:         20 * time.Millisecond,
		ScreenshotTimeout: time.Second,
	}
	return browser.NewManager(launcher, shots, cfg, logger.NewTestLogger()), page, launcher, shots
}

func openSession(t *testing.T, m *browser.Manager) *browser.Handle {
	t.Helper()
	h, err := m.Open(context.Background(), "https://example.com", browser.OpenOptions{RunID: "run-1"})
	require.NoError(t, err)
	return h
}

func TestManager_Open(t *testing.T) {
	m, page, launcher, _ := setupManager(t)

	h, err := m.Open(context.Background(), "https://example.com", browser.OpenOptions{RunID: "run-1", Interactive: true})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID())
	assert.Equal(t, "run-1", h.RunID())
	assert.Equal(t, []string{"https://example.com"}, page.Navigated())

	launched := launcher.Launched()
	require.Len(t, launched, 1)
	assert.False(t, launched[0].Headless)
}

func TestManager_OpenNavigationError(t *testing.T) {
	m, page, _, _ := setupManager(t)
	page.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	h, err := m.Open(context.Background(), "https://nowhere.invalid", browser.OpenOptions{})
	assert.Nil(t, h)
	assert.ErrorIs(t, err, browser.ErrNavigation)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
	assert.Equal(t, 1, page.Closes())
}

func TestManager_OpenLaunchError(t *testing.T) {
	m, page, launcher, _ := setupManager(t)
	launcher.Err = browser.ErrLaunch

	_, err := m.Open(context.Background(), "https://example.com", browser.OpenOptions{})
	assert.ErrorIs(t, err, browser.ErrNavigation)
	assert.ErrorIs(t, err, browser.ErrLaunch)
	assert.Empty(t, page.Navigated())
}

func TestManager_PerformScriptOutcomes(t *testing.T) {
	click := scenario.Step{
		Action:  scenario.ActionClick,
		Locator: &scenario.Locator{Strategy: scenario.StrategyRole, Role: "button", Name: "Submit"},
	}

	tests := []struct {
		name      string
		evaluator browsertest.EvaluateFunc
		wantOK    bool
		wantKind  browser.FailureKind
		wantValue string
	}{
		{
			name:      "ok",
			evaluator: browsertest.Reply("ok", "done", ""),
			wantOK:    true,
			wantValue: "done",
		},
		{
			name:      "element not found",
			evaluator: browsertest.Reply("not_found", "", "no matching element"),
			wantKind:  browser.FailureElementNotFound,
		},
		{
			name:      "assertion failed",
			evaluator: browsertest.Reply("failed", "", "element present but not visible"),
			wantKind:  browser.FailureAssertionFailed,
		},
		{
			name:      "script error",
			evaluator: browsertest.Reply("error", "", "element is not editable"),
			wantKind:  browser.FailureActionError,
		},
		{
			name: "driver error",
			evaluator: func(context.Context, string) (json.RawMessage, error) {
				return nil, errors.New("target crashed")
			},
			wantKind: browser.FailureActionError,
		},
		{
			name:      "driver never returns",
			evaluator: browsertest.Block(),
			wantKind:  browser.FailureTimeout,
		},
		{
			name: "unreadable result",
			evaluator: func(context.Context, string) (json.RawMessage, error) {
				return json.RawMessage(`42`), nil
			},
			wantKind: browser.FailureActionError,
		},
		{
			name: "driver panic",
			evaluator: func(context.Context, string) (json.RawMessage, error) {
				panic("boom")
			},
			wantKind: browser.FailureActionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, page, _, _ := setupManager(t)
			h := openSession(t, m)
			page.Evaluator = tt.evaluator

			out := m.Perform(context.Background(), h, click)
			assert.Equal(t, tt.wantOK, out.OK)
			assert.Equal(t, tt.wantKind, out.Failure)
			assert.Equal(t, tt.wantValue, out.Value)
			assert.Equal(t, scenario.ActionClick, out.Step.Action)
			if tt.wantOK {
				assert.NoError(t, out.Err())
			} else {
				assert.ErrorIs(t, out.Err(), tt.wantKind.Sentinel())
				assert.NotEmpty(t, out.Detail)
			}
		})
	}
}

func TestManager_PerformScriptContents(t *testing.T) {
	m, page, _, _ := setupManager(t)
	h := openSession(t, m)

	out := m.Perform(context.Background(), h, scenario.Step{
		Action:   scenario.ActionAssertText,
		Locator:  &scenario.Locator{Strategy: scenario.StrategyCSS, Selector: "h1.title"},
		Expected: "Welcome",
	})
	require.True(t, out.OK)

	scripts := page.Evaluated()
	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], `"h1.title"`)
	assert.Contains(t, scripts[0], `"Welcome"`)
	assert.Contains(t, scripts[0], "MutationObserver")
}

func TestManager_PerformInvalidSteps(t *testing.T) {
	tests := []struct {
		name string
		step scenario.Step
	}{
		{
			name: "unknown action",
			step: scenario.Step{Action: "hover"},
		},
		{
			name: "missing locator",
			step: scenario.Step{Action: scenario.ActionClick},
		},
		{
			name: "incomplete locator",
			step: scenario.Step{Action: scenario.ActionClick, Locator: &scenario.Locator{Strategy: scenario.StrategyRole}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, page, _, _ := setupManager(t)
			h := openSession(t, m)

			out := m.Perform(context.Background(), h, tt.step)
			assert.False(t, out.OK)
			assert.Equal(t, browser.FailureActionError, out.Failure)
			assert.Empty(t, page.Evaluated())
		})
	}
}

func TestManager_PerformNavigate(t *testing.T) {
	m, page, _, _ := setupManager(t)
	h := openSession(t, m)

	out := m.Perform(context.Background(), h, scenario.Step{Action: scenario.ActionNavigate, Value: "https://example.com/about"})
	assert.True(t, out.OK)
	assert.Equal(t, []string{"https://example.com", "https://example.com/about"}, page.Navigated())

	page.NavigateErr = errors.New("net::ERR_CONNECTION_REFUSED")
	out = m.Perform(context.Background(), h, scenario.Step{Action: scenario.ActionNavigate, Value: "https://example.com/down"})
	assert.False(t, out.OK)
	assert.Equal(t, browser.FailureActionError, out.Failure)
	assert.Contains(t, out.Detail, "ERR_CONNECTION_REFUSED")
}

func TestManager_PerformWait(t *testing.T) {
	m, _, _, _ := setupManager(t)
	h := openSession(t, m)

	out := m.Perform(context.Background(), h, scenario.Step{Action: scenario.ActionWait, TimeoutMS: 5})
	assert.True(t, out.OK)
	assert.GreaterOrEqual(t, out.Duration, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out = m.Perform(ctx, h, scenario.Step{Action: scenario.ActionWait, TimeoutMS: 60000})
	assert.False(t, out.OK)
	assert.Equal(t, browser.FailureTimeout, out.Failure)
}

func TestManager_PerformScreenshot(t *testing.T) {
	m, _, _, shots := setupManager(t)
	h := openSession(t, m)

	out := m.Perform(context.Background(), h, scenario.Step{Action: scenario.ActionScreenshot, Value: "landing"})
	require.True(t, out.OK)
	assert.Equal(t, "mem://run-1/landing/0", out.Value)
	assert.Equal(t, []string{out.Value}, shots.Saved())

}

func TestManager_PerformScreenshotFailureDoesNotFailStep(t *testing.T) {
	page := browsertest.NewPage()
	shots := &browsertest.Screenshots{}
	log := logger.NewTestLogger()
	m := browser.NewManager(browsertest.NewLauncher(page), shots, browser.Config{ScreenshotTimeout: time.Second}, log)
	h := openSession(t, m)

	page.ShotErr = errors.New("capture failed")
	out := m.Perform(context.Background(), h, scenario.Step{Action: scenario.ActionScreenshot, Value: "again"})
	assert.True(t, out.OK)
	assert.Empty(t, out.Value)
	assert.Empty(t, out.Failure)
	assert.Empty(t, shots.Saved())
	assert.True(t, log.HasMessage("warn", "failed to capture screenshot"))
}

func TestManager_ScreenshotFailuresYieldEmptyReference(t *testing.T) {
	t.Run("capture error", func(t *testing.T) {
		m, page, _, _ := setupManager(t)
		h := openSession(t, m)
		page.ShotErr = errors.New("target closed")
		assert.Empty(t, m.Screenshot(context.Background(), h, "final"))
	})

	t.Run("store error", func(t *testing.T) {
		m, _, _, shots := setupManager(t)
		h := openSession(t, m)
		shots.Err = errors.New("bucket missing")
		assert.Empty(t, m.Screenshot(context.Background(), h, "final"))
	})

	t.Run("no store", func(t *testing.T) {
		page := browsertest.NewPage()
		m := browser.NewManager(browsertest.NewLauncher(page), nil, browser.Config{}, logger.NewTestLogger())
		h := openSession(t, m)
		assert.Empty(t, m.Screenshot(context.Background(), h, "final"))
	})

	t.Run("closed session", func(t *testing.T) {
		m, _, _, _ := setupManager(t)
		h := openSession(t, m)
		require.NoError(t, m.Close(context.Background(), h))
		assert.Empty(t, m.Screenshot(context.Background(), h, "final"))
	})
}

func TestManager_PageHTML(t *testing.T) {
	m, page, _, _ := setupManager(t)
	h := openSession(t, m)
	page.Evaluator = func(context.Context, string) (json.RawMessage, error) {
		return json.RawMessage(`"<html><body><h1>Hi</h1></body></html>"`), nil
	}

	html, err := m.PageHTML(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "<html><body><h1>Hi</h1></body></html>", html)
}

func TestManager_PerformAccessibilityAudits(t *testing.T) {
	tablist := &scenario.Locator{Strategy: scenario.StrategyCSS, Selector: "#filters"}
	tests := []struct {
		name    string
		html    string
		step    scenario.Step
		ok      bool
		failure browser.FailureKind
		detail  string
	}{
		{
			name: "named controls",
			html: `<html><body><button>Save</button><img src="a.png" alt="A"></body></html>`,
			step: scenario.Step{Action: scenario.ActionAssertAccessibleNames},
			ok:   true,
		},
		{
			name:    "unnamed button",
			html:    `<html><body><button id="menu"></button></body></html>`,
			step:    scenario.Step{Action: scenario.ActionAssertAccessibleNames},
			failure: browser.FailureAssertionFailed,
			detail:  "button#menu",
		},
		{
			name: "tablist groups",
			html: `<html><body><div id="filters" role="tablist"><div role="group">A</div></div></body></html>`,
			step: scenario.Step{Action: scenario.ActionAssertTablistChildren, Locator: tablist, Expected: "group"},
			ok:   true,
		},
		{
			name:    "tablist children without tab role",
			html:    `<html><body><div role="tablist"><span>A</span></div></body></html>`,
			step:    scenario.Step{Action: scenario.ActionAssertTablistChildren},
			failure: browser.FailureAssertionFailed,
			detail:  "without the expected role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, page, _, _ := setupManager(t)
			h := openSession(t, m)
			page.Evaluator = browsertest.Markup(tt.html)

			out := m.Perform(context.Background(), h, tt.step)
			assert.Equal(t, tt.ok, out.OK)
			assert.Equal(t, tt.failure, out.Failure)
			assert.Contains(t, out.Detail, tt.detail)
		})
	}
}

func TestManager_PerformAccessibilityAuditTimeout(t *testing.T) {
	m, page, _, _ := setupManager(t)
	h := openSession(t, m)
	page.Evaluator = browsertest.Block()

	out := m.Perform(context.Background(), h, scenario.Step{Action: scenario.ActionAssertAccessibleNames})
	assert.False(t, out.OK)
	assert.Equal(t, browser.FailureTimeout, out.Failure)
}

func TestManager_Overlay(t *testing.T) {
	m, page, _, _ := setupManager(t)
	h := openSession(t, m)
	ctx := context.Background()

	calls, err := m.InstallOverlay(ctx, h, "__signal", "window.__overlay = true;")
	require.NoError(t, err)
	assert.True(t, page.HasBinding("__signal"))
	assert.Equal(t, []string{"window.__overlay = true;"}, page.InitScripts())
	assert.Contains(t, page.Evaluated(), "window.__overlay = true;")

	require.True(t, page.CallBinding("__signal", "done"))
	select {
	case payload := <-calls:
		assert.Equal(t, "done", payload)
	case <-time.After(time.Second):
		t.Fatal("binding call not delivered")
	}

	require.NoError(t, m.RemoveOverlay(ctx, h, "delete window.__overlay;"))
	assert.Empty(t, page.InitScripts())
	assert.Contains(t, page.Evaluated(), "delete window.__overlay;")
}

func TestManager_Close(t *testing.T) {
	m, page, _, _ := setupManager(t)
	h := openSession(t, m)
	ctx := context.Background()

	require.NoError(t, m.Close(ctx, h))
	require.NoError(t, m.Close(ctx, h))
	assert.Equal(t, 1, page.Closes())
	assert.NoError(t, m.Close(ctx, nil))

	assert.ErrorIs(t, m.Navigate(ctx, h, "https://example.com"), browser.ErrSessionClosed)

	out := m.Perform(ctx, h, scenario.Step{Action: scenario.ActionWait, TimeoutMS: 1})
	assert.False(t, out.OK)
	assert.Equal(t, browser.FailureActionError, out.Failure)
	assert.True(t, strings.Contains(out.Detail, "closed"))
}
