// Package auth coordinates interactive logins: a human signs in inside the
// run's browser session while the pipeline waits, bounded by a timeout.
// No credentials pass through this package.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
)

// ErrAuthTimeout is returned when the human does not finish signing in
// within the allowed window.
var ErrAuthTimeout = errors.New("interactive authentication timed out")

// DefaultTimeout applies when AwaitManualLogin receives no timeout.
const DefaultTimeout = 300 * time.Second

// Browser is the part of the session manager the coordinator drives.
type Browser interface {
	Navigate(ctx context.Context, h *browser.Handle, url string) error
	InstallOverlay(ctx context.Context, h *browser.Handle, binding, script string) (<-chan string, error)
	RemoveOverlay(ctx context.Context, h *browser.Handle, cleanup string) error
}

// Coordinator runs the manual login handshake.
type Coordinator struct {
	browser  Browser
	registry *Registry
	logger   logger.Logger
}

// NewCoordinator creates a Coordinator. registry may be nil, in which case
// only the on-page button can complete a login.
func NewCoordinator(b Browser, registry *Registry, log logger.Logger) *Coordinator {
	return &Coordinator{
		browser:  b,
		registry: registry,
		logger:   log,
	}
}

// AwaitManualLogin sends the session to target and waits until the human
// signals that they have signed in, the timeout elapses or ctx ends. The
// timeout covers the whole handshake, including a navigation that never
// settles. The site may redirect any number of times while the human works
// through it.
func (c *Coordinator) AwaitManualLogin(ctx context.Context, runID string, h *browser.Handle, target string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := c.logger.WithFields(map[string]interface{}{
		"run_id":     runID,
		"session_id": h.ID(),
	})
	start := time.Now()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var signalled <-chan struct{}
	if c.registry != nil {
		hs := c.registry.Begin(runID, timeout)
		defer c.registry.End(hs)
		signalled = hs.Done()
	}

	// Installed before navigating so the indicator also shows on the first
	// identity provider page.
	clicked, err := c.browser.InstallOverlay(waitCtx, h, SignalBinding, overlayScript(runID))
	if err != nil {
		if waitCtx.Err() == nil {
			log.Warn(ctx, "sign-in indicator unavailable; waiting for an external signal", map[string]interface{}{
				"error": err.Error(),
			})
		}
		clicked = nil
	}

	log.Info(ctx, "waiting for manual login", map[string]interface{}{
		"url":     target,
		"timeout": timeout.String(),
	})

	// Identity providers commonly abort the first load with a redirect or
	// never finish loading, so navigation runs alongside the wait and its
	// failure does not end it.
	navDone := make(chan struct{})
	go func() {
		defer close(navDone)
		if err := c.browser.Navigate(waitCtx, h, target); err != nil && waitCtx.Err() == nil {
			log.Warn(ctx, "navigation during login did not settle", map[string]interface{}{
				"url":   target,
				"error": err.Error(),
			})
		}
	}()

	var via string
	select {
	case <-signalled:
		via = "signal"
	case <-clicked:
		via = "page"
	case <-waitCtx.Done():
	}
	cancel()
	<-navDone

	if via == "" {
		if err := ctx.Err(); err != nil {
			recordManualLogin("cancelled", time.Since(start))
			return err
		}
		recordManualLogin("timeout", time.Since(start))
		log.Warn(ctx, "manual login timed out", map[string]interface{}{"timeout": timeout.String()})
		return fmt.Errorf("%w after %s", ErrAuthTimeout, timeout)
	}

	if err := c.browser.RemoveOverlay(ctx, h, overlayCleanup); err != nil {
		log.Warn(ctx, "failed to remove sign-in indicator", map[string]interface{}{"error": err.Error()})
	}

	waited := time.Since(start)
	recordManualLogin("completed", waited)
	log.Info(ctx, "manual login completed", map[string]interface{}{
		"via":    via,
		"waited": waited.String(),
	})
	return nil
}
