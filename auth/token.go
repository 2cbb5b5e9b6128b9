package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrInvalidToken is returned when a completion token fails verification.
	ErrInvalidToken = errors.New("invalid authentication completion token")

	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("authentication token secret is not configured")
)

const tokenName = "auth-completion"

type completionClaims struct {
	RunID    string
	IssuedAt int64
}

// TokenSigner issues and verifies the tokens that authorise a completion
// signal for a single run. Tokens are signed and encrypted.
type TokenSigner struct {
	codec *securecookie.SecureCookie
}

// NewTokenSigner derives signing and encryption keys from secret. Tokens
// older than ttl are rejected; a zero ttl disables the age check.
func NewTokenSigner(secret string, ttl time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	hashKey, err := deriveKey(secret, "validation-agent auth token hash", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(secret, "validation-agent auth token block", 32)
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(ttl / time.Second))
	return &TokenSigner{codec: codec}, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Issue returns a token that authorises completing runID's login.
func (s *TokenSigner) Issue(runID string) (string, error) {
	token, err := s.codec.Encode(tokenName, completionClaims{RunID: runID, IssuedAt: time.Now().Unix()})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// Verify checks that token was issued for runID and has not expired.
func (s *TokenSigner) Verify(token, runID string) error {
	var claims completionClaims
	if err := s.codec.Decode(tokenName, token, &claims); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.RunID != runID {
		return fmt.Errorf("%w: issued for another run", ErrInvalidToken)
	}
	return nil
}
