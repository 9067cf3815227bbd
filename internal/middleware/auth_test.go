package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corpdesk-backend/internal/ctxkeys"
	"corpdesk-backend/internal/middleware"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testUserID = "00000000-0000-0000-0000-000000000001"
)

// buildRouter wires Auth (and optionally RequireMinRole) in front of a
// handler that echoes the context values injected by the middleware.
func buildRouter(minRole string) *chi.Mux {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(testSecret))
		if minRole != "" {
			r.Use(middleware.RequireMinRole(minRole))
		}
		r.Get("/protected", func(w http.ResponseWriter, req *http.Request) {
			userID, _ := req.Context().Value(ctxkeys.UserID).(string)
			role, _ := req.Context().Value(ctxkeys.UserRole).(string)
			json.NewEncoder(w).Encode(map[string]string{
				"userId": userID,
				"role":   role,
			})
		})
	})
	return r
}

func signToken(t *testing.T, userID, role string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    time.Now().Add(ttl).Unix(),
		"iat":    time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router *chi.Mux, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ── Auth ───────────────────────────────────────────────────────

func TestAuthInjectsClaims(t *testing.T) {
	router := buildRouter("")
	rec := doRequest(t, router, "Bearer "+signToken(t, testUserID, "staff", time.Hour))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, testUserID, body["userId"])
	assert.Equal(t, "staff", body["role"])
}

func TestAuthMissingHeader(t *testing.T) {
	rec := doRequest(t, buildRouter(""), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMalformedHeader(t *testing.T) {
	rec := doRequest(t, buildRouter(""), "NotBearer abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	rec := doRequest(t, buildRouter(""), "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	rec := doRequest(t, buildRouter(""), "Bearer "+signToken(t, testUserID, "admin", -time.Hour))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": testUserID,
		"role":   "admin",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("a-completely-different-secret"))
	require.NoError(t, err)

	rec := doRequest(t, buildRouter(""), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMissingUserID(t *testing.T) {
	rec := doRequest(t, buildRouter(""), "Bearer "+signToken(t, "", "admin", time.Hour))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ── RequireMinRole ─────────────────────────────────────────────

func TestRequireMinRoleHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		minRole  string
		userRole string
		want     int
	}{
		{"admin accesses admin route", "admin", "admin", http.StatusOK},
		{"super_admin accesses admin route", "admin", "super_admin", http.StatusOK},
		{"staff blocked from admin route", "admin", "staff", http.StatusForbidden},
		{"viewer blocked from admin route", "admin", "viewer", http.StatusForbidden},
		{"staff accesses staff route", "staff", "staff", http.StatusOK},
		{"viewer blocked from staff route", "staff", "viewer", http.StatusForbidden},
		{"viewer accesses viewer route", "viewer", "viewer", http.StatusOK},
		{"unknown role blocked", "viewer", "bogus", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := buildRouter(tt.minRole)
			rec := doRequest(t, router, "Bearer "+signToken(t, testUserID, tt.userRole, time.Hour))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
