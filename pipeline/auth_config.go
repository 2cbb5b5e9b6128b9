package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownAuthType is returned for an auth_config type outside the
// supported set.
var ErrUnknownAuthType = errors.New("unknown auth type")

// AuthKind selects how a run gets past a login wall.
type AuthKind string

const (
	AuthNone        AuthKind = "none"
	AuthCredentials AuthKind = "credentials"
	AuthInteractive AuthKind = "interactive"
)

// AuthConfig is the parsed authentication request of a run. Credentials
// are informational: the username is kept for logging and the password is
// dropped on parse.
type AuthConfig struct {
	Kind     AuthKind
	Timeout  time.Duration
	Username string
}

// IsInteractive reports whether a human signs in during the run.
func (a AuthConfig) IsInteractive() bool {
	return a.Kind == AuthInteractive
}

// AuthConfigRequest is the auth_config object of an inbound request.
type AuthConfigRequest struct {
	Type     string `json:"type"`
	Timeout  int    `json:"timeout,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ParseAuthConfig converts the request form. A nil request means no
// authentication. Interactive timeouts are given in seconds; zero or
// negative values use def and anything above max is capped.
func ParseAuthConfig(req *AuthConfigRequest, def, max time.Duration) (AuthConfig, error) {
	if req == nil {
		return AuthConfig{Kind: AuthNone}, nil
	}

	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case "", "none":
		return AuthConfig{Kind: AuthNone}, nil
	case "credentials", "mslogin", "basic":
		return AuthConfig{Kind: AuthCredentials, Username: strings.TrimSpace(req.Username)}, nil
	case "interactive":
		timeout := def
		if req.Timeout > 0 {
			timeout = time.Duration(req.Timeout) * time.Second
		}
		if max > 0 && timeout > max {
			timeout = max
		}
		return AuthConfig{Kind: AuthInteractive, Timeout: timeout}, nil
	}
	return AuthConfig{}, fmt.Errorf("%w: %q", ErrUnknownAuthType, req.Type)
}
