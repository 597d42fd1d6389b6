package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-session-secret"

func signSession(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func sessionToken(t *testing.T, email string) string {
	return signSession(t, testSecret, jwt.MapClaims{
		"email":   email,
		"name":    "Alice Dev",
		"picture": "https://img/alice",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
}

// identityEcho records the identity the middleware attached.
func identityEcho(got *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := IdentityFromContext(r.Context())
		if err == nil {
			*got = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionMiddleware_ValidTokenAttachesIdentity(t *testing.T) {
	var got Identity
	handler := SessionMiddleware(testSecret)(identityEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kudos", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "  Alice@Rally-Go.com "))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got.Email != "alice@rally-go.com" {
		t.Errorf("email = %q, want lowercased trimmed", got.Email)
	}
	if got.Name != "Alice Dev" || got.Image != "https://img/alice" {
		t.Errorf("identity = %+v", got)
	}
}

func TestSessionMiddleware_MissingTokenReturns401(t *testing.T) {
	handler := SessionMiddleware(testSecret)(identityEcho(&Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kudos", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q, want problem+json", ct)
	}
}

func TestSessionMiddleware_WrongSecretReturns401(t *testing.T) {
	handler := SessionMiddleware(testSecret)(identityEcho(&Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kudos", nil)
	req.Header.Set("Authorization", "Bearer "+signSession(t, "other-secret", jwt.MapClaims{
		"email": "alice@rally-go.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSessionMiddleware_ExpiredTokenReturns401(t *testing.T) {
	handler := SessionMiddleware(testSecret)(identityEcho(&Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kudos", nil)
	req.Header.Set("Authorization", "Bearer "+signSession(t, testSecret, jwt.MapClaims{
		"email": "alice@rally-go.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSessionMiddleware_TokenWithoutEmailReturns401(t *testing.T) {
	handler := SessionMiddleware(testSecret)(identityEcho(&Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kudos", nil)
	req.Header.Set("Authorization", "Bearer "+signSession(t, testSecret, jwt.MapClaims{
		"name": "No Email",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSessionMiddleware_UnsignedAlgorithmRejected(t *testing.T) {
	handler := SessionMiddleware(testSecret)(identityEcho(&Identity{}))

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "alice@rally-go.com",
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build none token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kudos", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, alg=none must be rejected", w.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"Bearer  abc123 ", "abc123"},
		{"bearer abc123", ""},
		{"Basic abc123", ""},
		{"", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := extractBearerToken(req); got != tc.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestManagerOnly_AllowsListedEmail(t *testing.T) {
	called := false
	handler := ManagerOnly([]string{"Lead@Rally-Go.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grooming", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{Email: "lead@rally-go.com"}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("allow-listed manager should pass")
	}
}

func TestManagerOnly_RejectsUnlistedEmail(t *testing.T) {
	handler := ManagerOnly([]string{"lead@rally-go.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for non-managers")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grooming", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{Email: "dev@rally-go.com"}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestManagerOnly_RejectsMissingIdentity(t *testing.T) {
	handler := ManagerOnly([]string{"lead@rally-go.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grooming", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRecoveryMiddleware_PanicReturns500(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
