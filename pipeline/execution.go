package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
)

// ErrInteractiveUnavailable is returned for an interactive run when no
// login coordinator is configured.
var ErrInteractiveUnavailable = errors.New("interactive authentication is not available")

// Sessions opens and releases browser sessions.
type Sessions interface {
	Open(ctx context.Context, url string, opts browser.OpenOptions) (*browser.Handle, error)
	Close(ctx context.Context, h *browser.Handle) error
}

// ScenarioRunner executes scenarios against an open session.
type ScenarioRunner interface {
	Execute(ctx context.Context, h *browser.Handle, scenarios []scenario.Scenario) []executor.ExecutionResult
}

// LoginAwaiter waits for a human to sign in inside a session.
type LoginAwaiter interface {
	AwaitManualLogin(ctx context.Context, runID string, h *browser.Handle, target string, timeout time.Duration) error
}

// ExecutionStage owns the run's browser session: it opens it, hands it to
// the login coordinator when the run is interactive, executes every
// scenario and always closes it.
type ExecutionStage struct {
	sessions Sessions
	runner   ScenarioRunner
	login    LoginAwaiter
	logger   logger.Logger
}

// NewExecutionStage creates an ExecutionStage. login may be nil when
// interactive runs are not supported; such runs then fail.
func NewExecutionStage(sessions Sessions, runner ScenarioRunner, login LoginAwaiter, log logger.Logger) *ExecutionStage {
	return &ExecutionStage{
		sessions: sessions,
		runner:   runner,
		login:    login,
		logger:   log,
	}
}

func (e *ExecutionStage) Name() string { return StageExecution }

func (e *ExecutionStage) Run(ctx context.Context, s State) (State, error) {
	scenarios := s.Executable()
	auth := s.Auth()
	log := e.logger.WithField("run_id", s.RunID())

	if auth.IsInteractive() && e.login == nil {
		return s, ErrInteractiveUnavailable
	}

	h, err := e.sessions.Open(ctx, s.Website(), browser.OpenOptions{
		RunID:       s.RunID(),
		Interactive: auth.IsInteractive(),
	})
	if err != nil {
		return s, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := e.sessions.Close(context.WithoutCancel(ctx), h); err != nil {
			log.Warn(ctx, "failed to close browser session", map[string]interface{}{"error": err.Error()})
		}
	}()

	switch auth.Kind {
	case AuthInteractive:
		if err := e.login.AwaitManualLogin(ctx, s.RunID(), h, s.Website(), auth.Timeout); err != nil {
			return s, fmt.Errorf("interactive login failed: %w", err)
		}
	case AuthCredentials:
		log.Info(ctx, "credentials supplied; not submitted, running unauthenticated", map[string]interface{}{
			"username": auth.Username,
		})
	}

	log.Info(ctx, "executing scenarios", map[string]interface{}{"scenarios": len(scenarios)})
	results := e.runner.Execute(ctx, h, scenarios)
	return s.WithResults(results)
}
