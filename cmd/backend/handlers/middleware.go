package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"golang.org/x/time/rate"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// AuthMethodKey is the context key for the authentication method.
	AuthMethodKey ContextKey = "auth_method"
)

// AuthMiddleware checks the Bearer API key on every request.
type AuthMiddleware struct {
	apiKey string
	logger logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware. An empty
// apiKey disables the check.
func NewAuthMiddleware(apiKey string, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		apiKey: apiKey,
		logger: log,
	}
}

// Handler wraps an HTTP handler with authentication.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.apiKey == "" {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AuthMethodKey, "none")))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.logger.Warn(r.Context(), "missing bearer token", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(rawToken), []byte(m.apiKey)) != 1 {
			m.logger.Warn(r.Context(), "invalid bearer token", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AuthMethodKey, "bearer")))
	})
}

// GetAuthMethod extracts the authentication method from the request context.
func GetAuthMethod(ctx context.Context) string {
	method, ok := ctx.Value(AuthMethodKey).(string)
	if !ok {
		return "none"
	}
	return method
}

// RateLimitMiddleware rejects state-mutating requests beyond a shared
// token-bucket rate. GET and HEAD requests are never limited.
type RateLimitMiddleware struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewRateLimitMiddleware allows rps mutating requests per second with the
// given burst. A non-positive rps disables limiting.
func NewRateLimitMiddleware(rps float64, burst int, log logger.Logger) *RateLimitMiddleware {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitMiddleware{
		limiter: rate.NewLimiter(limit, burst),
		logger:  log,
	}
}

// Handler wraps an HTTP handler with rate limiting.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			if !m.limiter.Allow() {
				m.logger.Warn(r.Context(), "rate limit exceeded", map[string]interface{}{
					"path":   r.URL.Path,
					"method": r.Method,
				})
				w.Header().Set("Retry-After", "1")
				respondError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
