package security

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
)

// APIKeyMiddleware validates API keys for incoming status API requests.
// Health, metrics and the Swagger docs stay public.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" ||
			r.URL.Path == "/metrics" ||
			strings.HasPrefix(r.URL.Path, "/swagger") {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			// Try Authorization header
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if !validateAPIKey(apiKey) {
			http.Error(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validateAPIKey checks if the provided API key is valid
func validateAPIKey(apiKey string) bool {
	validKey := os.Getenv("API_KEY")
	if validKey == "" {
		validKey = "aviary-monitor-secret"
	}

	// Use constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1
}
