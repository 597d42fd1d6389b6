package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// extractBearerToken extracts the token from Authorization header.
// Returns empty string for missing/malformed headers.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 6750)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// sessionClaims are the claims the identity gateway puts in a session
// token. Email is the identity key everywhere in this service.
type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"picture"`
	jwt.RegisteredClaims
}

// SessionMiddleware verifies the HS256 session token minted by the
// identity gateway and attaches the caller's Identity to the request
// context. Returns 401 RFC 7807 Problem Details on any failure.
func SessionMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				WriteProblem(w, r, http.StatusUnauthorized, "Missing session token")
				return
			}

			claims := &sessionClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return key, nil
			})
			if err != nil || !parsed.Valid || claims.Email == "" {
				slog.Warn("session verification failed",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_ip", r.RemoteAddr,
					"error", err,
				)
				WriteProblem(w, r, http.StatusUnauthorized, "Invalid session token")
				return
			}

			id := Identity{
				Email: strings.ToLower(strings.TrimSpace(claims.Email)),
				Name:  claims.Name,
				Image: claims.Image,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// ManagerOnly gates a route group behind the manager email allow-list.
// Comparison is on the lowercased, trimmed session email.
func ManagerOnly(allowed []string) func(http.Handler) http.Handler {
	allowSet := make(map[string]bool, len(allowed))
	for _, email := range allowed {
		allowSet[strings.ToLower(strings.TrimSpace(email))] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := IdentityFromContext(r.Context())
			if err != nil || !allowSet[id.Email] {
				slog.Warn("manager access denied",
					"path", r.URL.Path,
					"email", id.Email,
				)
				WriteProblem(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecoveryMiddleware catches panics and returns 500 Problem Details.
// Panic details are logged but never exposed to the client.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered",
					"error", recovered,
					"stack", string(debug.Stack()),
					"path", r.URL.Path,
					"method", r.Method,
				)
				WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
