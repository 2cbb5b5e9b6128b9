package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hairizuanbinnoorazman/validation-agent/logger"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		apiKey     string
		header     string
		wantStatus int
		wantMethod string
	}{
		{
			name:       "disabled when no key configured",
			apiKey:     "",
			wantStatus: http.StatusOK,
			wantMethod: "none",
		},
		{
			name:       "valid bearer token passes",
			apiKey:     "s3cret",
			header:     "Bearer s3cret",
			wantStatus: http.StatusOK,
			wantMethod: "bearer",
		},
		{
			name:       "missing header returns 401",
			apiKey:     "s3cret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong token returns 401",
			apiKey:     "s3cret",
			header:     "Bearer guess",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic auth returns 401",
			apiKey:     "s3cret",
			header:     "Basic czNjcmV0",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotMethod string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = GetAuthMethod(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			NewAuthMiddleware(tc.apiKey, logger.NewTestLogger()).Handler(next).ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status code = %d, want %d", w.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK && gotMethod != tc.wantMethod {
				t.Errorf("auth method = %q, want %q", gotMethod, tc.wantMethod)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewRateLimitMiddleware(0.001, 1, logger.NewTestLogger()).Handler(okHandler)

	tests := []struct {
		name       string
		method     string
		wantStatus int
	}{
		{"first POST uses the burst", http.MethodPost, http.StatusOK},
		{"second POST is limited", http.MethodPost, http.StatusTooManyRequests},
		{"GET is never limited", http.MethodGet, http.StatusOK},
	}

	// The cases share one limiter, so they run in order.
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, "/api/v1/runs", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != tc.wantStatus {
			t.Errorf("%s: status code = %d, want %d", tc.name, w.Code, tc.wantStatus)
		}
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewRateLimitMiddleware(0, 0, logger.NewTestLogger()).Handler(okHandler)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status code = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}
