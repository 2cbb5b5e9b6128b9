// Package browser owns the live browser sessions used by test runs. The
// Manager opens one page per run, performs scenario steps against it with
// per-step fault isolation, captures screenshots and always releases the
// underlying browser.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/validation-agent/a11y"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// ScreenshotSaver persists screenshot bytes and returns a reference.
type ScreenshotSaver interface {
	SaveScreenshot(ctx context.Context, runID, label string, png []byte) (string, error)
}

// Config holds Manager timeouts.
type Config struct {
	// NavigationTimeout bounds Open and navigate steps.
	NavigationTimeout time.Duration

	// StepTimeout is the element wait budget for steps without timeout_ms.
	StepTimeout time.Duration

	// EvalGrace is added to a step's wait budget to bound the driver call.
	EvalGrace time.Duration

	// ScreenshotTimeout bounds capture and upload of a screenshot.
	ScreenshotTimeout time.Duration
}

// DefaultConfig returns the default Manager configuration.
func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 30 * time.Second,
		StepTimeout:       10 * time.Second,
		EvalGrace:         5 * time.Second,
		ScreenshotTimeout: 15 * time.Second,
	}
}

// OpenOptions configures Open.
type OpenOptions struct {
	RunID string

	// Interactive opens a visible window so a human can use it.
	Interactive bool
}

// Handle is an opaque reference to an open session. Only the Manager
// touches the page behind it.
type Handle struct {
	id    string
	runID string

	mu          sync.Mutex
	page        Page
	closed      bool
	initScripts []string
}

// ID returns the session identifier.
func (h *Handle) ID() string { return h.id }

// RunID returns the run the session belongs to.
func (h *Handle) RunID() string { return h.runID }

func (h *Handle) livePage() (Page, error) {
	if h == nil {
		return nil, ErrSessionClosed
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrSessionClosed
	}
	return h.page, nil
}

// StepOutcome is the result of one Perform call.
type StepOutcome struct {
	Step     scenario.Step `json:"-"`
	OK       bool          `json:"ok"`
	Value    string        `json:"value,omitempty"`
	Failure  FailureKind   `json:"failure,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Err returns nil for a successful outcome and a *StepError otherwise.
func (o StepOutcome) Err() error {
	if o.OK {
		return nil
	}
	return &StepError{Kind: o.Failure, Detail: o.Detail}
}

func succeeded(value string) StepOutcome {
	return StepOutcome{OK: true, Value: value}
}

func failed(kind FailureKind, format string, args ...interface{}) StepOutcome {
	return StepOutcome{Failure: kind, Detail: fmt.Sprintf(format, args...)}
}

// Manager opens and drives browser sessions.
type Manager struct {
	launcher    Launcher
	screenshots ScreenshotSaver
	config      Config
	logger      logger.Logger
}

// NewManager creates a Manager. screenshots may be nil, in which case
// Screenshot always yields an empty reference.
func NewManager(launcher Launcher, screenshots ScreenshotSaver, config Config, log logger.Logger) *Manager {
	def := DefaultConfig()
	if config.NavigationTimeout <= 0 {
		config.NavigationTimeout = def.NavigationTimeout
	}
	if config.StepTimeout <= 0 {
		config.StepTimeout = def.StepTimeout
	}
	if config.EvalGrace <= 0 {
		config.EvalGrace = def.EvalGrace
	}
	if config.ScreenshotTimeout <= 0 {
		config.ScreenshotTimeout = def.ScreenshotTimeout
	}
	return &Manager{
		launcher:    launcher,
		screenshots: screenshots,
		config:      config,
		logger:      log,
	}
}

// Open launches a page and navigates it to url. Any failure to reach url
// is returned wrapping ErrNavigation; the page is released before returning.
func (m *Manager) Open(ctx context.Context, url string, opts OpenOptions) (*Handle, error) {
	page, err := m.launcher.Launch(ctx, LaunchOptions{Headless: !opts.Interactive})
	if err != nil {
		recordNavigationFailure()
		return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	h := &Handle{id: uuid.NewString(), runID: opts.RunID, page: page}
	recordSessionOpened()

	log := m.logger.WithFields(map[string]interface{}{"session_id": h.id, "run_id": h.runID})
	log.Info(ctx, "browser session opened", map[string]interface{}{
		"url":         url,
		"interactive": opts.Interactive,
	})

	navCtx, cancel := context.WithTimeout(ctx, m.config.NavigationTimeout)
	defer cancel()
	if err := page.Navigate(navCtx, url); err != nil {
		recordNavigationFailure()
		if cerr := m.Close(context.WithoutCancel(ctx), h); cerr != nil {
			log.Warn(ctx, "failed to close session after navigation error", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
		if navCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, ErrTimeout)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return h, nil
}

// Navigate loads url in the session without a timeout of its own.
func (m *Manager) Navigate(ctx context.Context, h *Handle, url string) error {
	page, err := h.livePage()
	if err != nil {
		return err
	}
	if err := page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return nil
}

// Perform executes one step. It never returns an error: every failure,
// including a driver panic, is reported in the outcome.
func (m *Manager) Perform(ctx context.Context, h *Handle, st scenario.Step) (out StepOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = failed(FailureActionError, "driver panic: %v", r)
		}
		out.Step = st
		out.Duration = time.Since(start)
		recordStep(string(st.Action), out, out.Duration)
	}()

	page, err := h.livePage()
	if err != nil {
		return failed(FailureActionError, "%v", err)
	}
	if !st.Action.IsValid() {
		return failed(FailureActionError, "unknown action %q", st.Action)
	}

	timeout := st.Timeout(m.config.StepTimeout)

	switch st.Action {
	case scenario.ActionNavigate:
		navTimeout := m.config.NavigationTimeout
		if st.TimeoutMS > 0 {
			navTimeout = timeout
		}
		navCtx, cancel := context.WithTimeout(ctx, navTimeout)
		defer cancel()
		if err := page.Navigate(navCtx, st.Value); err != nil {
			if navCtx.Err() != nil {
				return failed(FailureTimeout, "navigation to %s did not finish within %s", st.Value, navTimeout)
			}
			return failed(FailureActionError, "navigation to %s failed: %v", st.Value, err)
		}
		return succeeded(st.Value)

	case scenario.ActionWait:
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-t.C:
			return succeeded("")
		case <-ctx.Done():
			return failed(FailureTimeout, "wait interrupted: %v", ctx.Err())
		}

	case scenario.ActionScreenshot:
		// Screenshot logs its own failures; an empty reference does not
		// fail the scenario.
		return succeeded(m.Screenshot(ctx, h, st.Value))

	case scenario.ActionAssertAccessibleNames, scenario.ActionAssertTablistChildren:
		return m.audit(ctx, h, st, timeout)
	}

	var finder string
	if st.Action.NeedsLocator() {
		if st.Locator == nil {
			return failed(FailureActionError, "%s requires a locator", st.Action)
		}
		r, err := resolverFor(*st.Locator)
		if err != nil {
			return failed(FailureActionError, "%v", err)
		}
		finder = r.Finder()
	}

	evalCtx, cancel := context.WithTimeout(ctx, timeout+m.config.EvalGrace)
	defer cancel()

	raw, err := page.Evaluate(evalCtx, buildStepScript(st, finder, timeout))
	if err != nil {
		if evalCtx.Err() != nil {
			return failed(FailureTimeout, "%s did not complete within %s", st.Action, timeout)
		}
		return failed(FailureActionError, "%s failed: %v", st.Action, err)
	}
	return interpretResult(st, raw, timeout)
}

// audit runs a markup accessibility check against the current document.
func (m *Manager) audit(ctx context.Context, h *Handle, st scenario.Step, timeout time.Duration) StepOutcome {
	auditCtx, cancel := context.WithTimeout(ctx, timeout+m.config.EvalGrace)
	defer cancel()

	html, err := m.PageHTML(auditCtx, h)
	if err != nil {
		if auditCtx.Err() != nil {
			return failed(FailureTimeout, "%s could not read the page within %s", st.Action, timeout)
		}
		return failed(FailureActionError, "%s failed to read the page: %v", st.Action, err)
	}

	var findings []a11y.Finding
	if st.Action == scenario.ActionAssertTablistChildren {
		selector := ""
		if st.Locator != nil {
			selector = st.Locator.Selector
		}
		findings, err = a11y.CheckTablistChildren(html, selector, st.Expected)
	} else {
		findings, err = a11y.AuditNames(html)
	}
	if err != nil {
		return failed(FailureActionError, "%s: %v", st.Action, err)
	}
	if len(findings) > 0 {
		return failed(FailureAssertionFailed, "%s: %s", st.Action, a11y.Summarize(findings))
	}
	return succeeded("")
}

type scriptResult struct {
	Status string `json:"status"`
	Value  string `json:"value"`
	Detail string `json:"detail"`
}

func interpretResult(st scenario.Step, raw json.RawMessage, timeout time.Duration) StepOutcome {
	var res scriptResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return failed(FailureActionError, "unreadable step result: %v", err)
	}

	target := ""
	if st.Locator != nil {
		target = st.Locator.String()
	}

	switch res.Status {
	case statusOK:
		return succeeded(res.Value)
	case statusNotFound:
		return failed(FailureElementNotFound, "%s: no element matched %s within %s", st.Action, target, timeout)
	case statusFailed:
		return failed(FailureAssertionFailed, "%s %s: %s", st.Action, target, res.Detail)
	case statusError:
		return failed(FailureActionError, "%s %s: %s", st.Action, target, res.Detail)
	}
	return failed(FailureActionError, "unexpected step status %q", res.Status)
}

// Screenshot captures the viewport and stores it. Failures are logged and
// yield an empty reference.
func (m *Manager) Screenshot(ctx context.Context, h *Handle, label string) string {
	page, err := h.livePage()
	if err != nil {
		return ""
	}
	log := m.logger.WithFields(map[string]interface{}{"session_id": h.id, "run_id": h.runID, "label": label})

	if m.screenshots == nil {
		log.Warn(ctx, "screenshot skipped: no artifact store configured", nil)
		return ""
	}

	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.ScreenshotTimeout)
	defer cancel()

	png, err := page.CaptureScreenshot(shotCtx)
	if err != nil {
		recordScreenshotFailure()
		log.Warn(ctx, "failed to capture screenshot", map[string]interface{}{"error": err.Error()})
		return ""
	}
	ref, err := m.screenshots.SaveScreenshot(shotCtx, h.runID, label, png)
	if err != nil {
		recordScreenshotFailure()
		log.Warn(ctx, "failed to store screenshot", map[string]interface{}{"error": err.Error()})
		return ""
	}
	log.Debug(ctx, "screenshot stored", map[string]interface{}{"ref": ref})
	return ref
}

// PageHTML returns the serialised DOM of the current document.
func (m *Manager) PageHTML(ctx context.Context, h *Handle) (string, error) {
	page, err := h.livePage()
	if err != nil {
		return "", err
	}
	raw, err := page.Evaluate(ctx, pageHTMLScript)
	if err != nil {
		return "", err
	}
	var html string
	if err := json.Unmarshal(raw, &html); err != nil {
		return "", fmt.Errorf("unreadable page HTML: %w", err)
	}
	return html, nil
}

// InstallOverlay exposes binding on window and registers script to run in
// the current document and every document loaded afterwards. Calls to the
// binding are delivered on the returned channel.
func (m *Manager) InstallOverlay(ctx context.Context, h *Handle, binding, script string) (<-chan string, error) {
	page, err := h.livePage()
	if err != nil {
		return nil, err
	}
	calls, err := page.Bind(ctx, binding)
	if err != nil {
		return nil, fmt.Errorf("failed to expose binding %s: %w", binding, err)
	}
	id, err := page.AddInitScript(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("failed to register overlay script: %w", err)
	}

	h.mu.Lock()
	h.initScripts = append(h.initScripts, id)
	h.mu.Unlock()

	if _, err := page.Evaluate(ctx, script); err != nil {
		m.logger.Warn(ctx, "overlay not applied to current document", map[string]interface{}{
			"session_id": h.id,
			"error":      err.Error(),
		})
	}
	return calls, nil
}

// RemoveOverlay unregisters every overlay script and runs cleanup in the
// current document.
func (m *Manager) RemoveOverlay(ctx context.Context, h *Handle, cleanup string) error {
	page, err := h.livePage()
	if err != nil {
		return err
	}
	h.mu.Lock()
	ids := h.initScripts
	h.initScripts = nil
	h.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := page.RemoveInitScript(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if cleanup != "" {
		if _, err := page.Evaluate(ctx, cleanup); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the session. It is safe to call more than once.
func (m *Manager) Close(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	page := h.page
	h.mu.Unlock()

	recordSessionClosed()
	err := page.Close(ctx)
	fields := map[string]interface{}{"session_id": h.id, "run_id": h.runID}
	if err != nil {
		fields["error"] = err.Error()
		m.logger.Warn(ctx, "browser session closed with error", fields)
		return err
	}
	m.logger.Info(ctx, "browser session closed", fields)
	return nil
}
