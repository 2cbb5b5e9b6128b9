package auth

import (
	"testing"
	"time"

	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshake_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "not expired",
			expiresAt: time.Now().Add(time.Hour),
			want:      false,
		},
		{
			name:      "expired",
			expiresAt: time.Now().Add(-time.Second),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := &Handshake{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, hs.IsExpired())
		})
	}
}

func TestRegistry_BeginAndSignal(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger())

	hs := r.Begin("run-1", time.Minute)
	assert.True(t, r.Pending("run-1"))

	require.NoError(t, r.Signal("run-1"))
	select {
	case <-hs.Done():
	default:
		t.Fatal("handshake not completed")
	}

	// A second signal is harmless.
	assert.NoError(t, r.Signal("run-1"))

	r.End(hs)
	assert.False(t, r.Pending("run-1"))
}

func TestRegistry_SignalErrors(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger())

	assert.ErrorIs(t, r.Signal("missing"), ErrHandshakeNotFound)

	r.Begin("run-2", -time.Second)
	assert.ErrorIs(t, r.Signal("run-2"), ErrHandshakeExpired)
	assert.False(t, r.Pending("run-2"))
}

func TestRegistry_EndKeepsReplacement(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger())

	first := r.Begin("run-1", time.Minute)
	second := r.Begin("run-1", time.Minute)

	r.End(first)
	assert.True(t, r.Pending("run-1"))

	require.NoError(t, r.Signal("run-1"))
	select {
	case <-second.Done():
	default:
		t.Fatal("replacement handshake not completed")
	}
}

func TestRegistry_Cleanup(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger())
	r.Begin("fresh", time.Hour)
	r.Begin("stale-1", -time.Minute)
	r.Begin("stale-2", -time.Second)

	assert.Equal(t, 2, r.Cleanup())
	assert.True(t, r.Pending("fresh"))
	assert.ErrorIs(t, r.Signal("stale-1"), ErrHandshakeNotFound)
}

func TestRegistry_StartCleanup(t *testing.T) {
	log := logger.NewTestLogger()
	r := NewRegistry(log)
	r.Begin("stale", -time.Second)

	r.StartCleanup(10 * time.Millisecond)
	defer r.StopCleanup()

	require.Eventually(t, func() bool {
		return log.HasMessage("info", "cleaned up expired authentication handshakes")
	}, time.Second, 10*time.Millisecond)

	// Stopping twice must not panic.
	r.StopCleanup()
}
