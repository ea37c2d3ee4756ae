package security

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func protected() http.Handler {
	return APIKeyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAPIKeyMiddleware(t *testing.T) {
	os.Setenv("API_KEY", "test-key")
	defer os.Unsetenv("API_KEY")

	t.Run("Public Paths Skip Auth", func(t *testing.T) {
		for _, path := range []string{"/health", "/metrics", "/swagger/index.html"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("Expected %s to be public, got status %d", path, rec.Code)
			}
		}
	})

	t.Run("Missing Key Rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		rec := httptest.NewRecorder()
		protected().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("Valid Header Key Accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.Header.Set("X-API-Key", "test-key")
		rec := httptest.NewRecorder()
		protected().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("Valid Bearer Token Accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.Header.Set("Authorization", "Bearer test-key")
		rec := httptest.NewRecorder()
		protected().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("Wrong Key Rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.Header.Set("X-API-Key", "nope")
		rec := httptest.NewRecorder()
		protected().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})
}
