package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSigner(t *testing.T) {
	signer, err := NewTokenSigner("top-secret", time.Hour)
	require.NoError(t, err)

	token, err := signer.Issue("run-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotContains(t, token, "run-1")

	assert.NoError(t, signer.Verify(token, "run-1"))
	assert.ErrorIs(t, signer.Verify(token, "run-2"), ErrInvalidToken)
	assert.ErrorIs(t, signer.Verify(token+"x", "run-1"), ErrInvalidToken)
	assert.ErrorIs(t, signer.Verify("", "run-1"), ErrInvalidToken)
}

func TestTokenSigner_DifferentSecrets(t *testing.T) {
	a, err := NewTokenSigner("secret-a", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenSigner("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := a.Issue("run-1")
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify(token, "run-1"), ErrInvalidToken)
}

func TestTokenSigner_MissingSecret(t *testing.T) {
	_, err := NewTokenSigner("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
