package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/logger"
)

var (
	// ErrHandshakeNotFound is returned when no run is waiting for a login.
	ErrHandshakeNotFound = errors.New("no pending authentication for run")

	// ErrHandshakeExpired is returned when the wait window has already closed.
	ErrHandshakeExpired = errors.New("authentication window expired")
)

// Handshake is one pending manual login. It completes at most once.
type Handshake struct {
	RunID     string
	CreatedAt time.Time
	ExpiresAt time.Time

	done chan struct{}
	once sync.Once
}

// Done is closed when the human signals completion.
func (h *Handshake) Done() <-chan struct{} {
	return h.done
}

// IsExpired checks if the wait window has passed.
func (h *Handshake) IsExpired() bool {
	return time.Now().After(h.ExpiresAt)
}

func (h *Handshake) complete() {
	h.once.Do(func() { close(h.done) })
}

// Registry tracks runs waiting for a human to finish signing in, so that
// a completion signal arriving out of band (REST, CLI) reaches the waiter.
type Registry struct {
	mu         sync.RWMutex
	handshakes map[string]*Handshake
	logger     logger.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		handshakes: make(map[string]*Handshake),
		logger:     log,
		stopCh:     make(chan struct{}),
	}
}

// Begin opens a handshake for runID that stays valid for ttl. A previous
// handshake for the same run is replaced.
func (r *Registry) Begin(runID string, ttl time.Duration) *Handshake {
	now := time.Now()
	hs := &Handshake{
		RunID:     runID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	r.handshakes[runID] = hs
	r.mu.Unlock()

	r.logger.Info(context.Background(), "authentication handshake started", map[string]interface{}{
		"run_id":     runID,
		"expires_at": hs.ExpiresAt,
	})
	return hs
}

// Signal completes the pending handshake for runID. Signalling an already
// completed handshake is a no-op.
func (r *Registry) Signal(runID string) error {
	r.mu.RLock()
	hs, exists := r.handshakes[runID]
	r.mu.RUnlock()

	if !exists {
		return ErrHandshakeNotFound
	}
	if hs.IsExpired() {
		return ErrHandshakeExpired
	}

	hs.complete()
	r.logger.Info(context.Background(), "authentication completion signalled", map[string]interface{}{
		"run_id": runID,
	})
	return nil
}

// Pending reports whether runID has an open, unexpired handshake.
func (r *Registry) Pending(runID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs, exists := r.handshakes[runID]
	return exists && !hs.IsExpired()
}

// End removes hs from the registry if it is still the current handshake
// for its run.
func (r *Registry) End(hs *Handshake) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handshakes[hs.RunID] == hs {
		delete(r.handshakes, hs.RunID)
	}
}

// Cleanup removes expired handshakes.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, hs := range r.handshakes {
		if now.After(hs.ExpiresAt) {
			delete(r.handshakes, id)
			removed++
		}
	}
	return removed
}

// StartCleanup starts a background goroutine that periodically removes
// expired handshakes.
func (r *Registry) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				removed := r.Cleanup()
				if removed > 0 {
					r.logger.Info(context.Background(), "cleaned up expired authentication handshakes", map[string]interface{}{
						"removed_count": removed,
					})
				}
			case <-r.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// StopCleanup stops the cleanup goroutine.
func (r *Registry) StopCleanup() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
