package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdthatthought-backend/pkg/auth"
)

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string) (bool, error) { return true, nil }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(ctx context.Context, key string) (bool, error) { return false, nil }

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func captureUser() (*auth.UserContext, http.Handler) {
	captured := &auth.UserContext{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := auth.GetUserFromContext(r.Context()); err == nil {
			*captured = *user
		}
		w.WriteHeader(http.StatusOK)
	})
	return captured, handler
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	_, next := captureUser()
	handler := Authenticate(allowAllLimiter{}, allowAllLimiter{})(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comments", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsMalformedToken(t *testing.T) {
	_, next := captureUser()
	handler := Authenticate(allowAllLimiter{}, allowAllLimiter{})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAttachesClaims(t *testing.T) {
	captured, next := captureUser()
	handler := Authenticate(allowAllLimiter{}, allowAllLimiter{})(next)

	token := signedToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "grandma@example.com",
		"name":  "Grandma",
		"roles": []string{"member", "admin"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", captured.UserID)
	assert.Equal(t, "grandma@example.com", captured.Email)
	assert.Equal(t, "Grandma", captured.Name)
	assert.Equal(t, []string{"member", "admin"}, captured.Roles)
	assert.True(t, captured.IsAdmin())
}

func TestAuthenticateRejectsTokenWithoutSubject(t *testing.T) {
	_, next := captureUser()
	handler := Authenticate(allowAllLimiter{}, allowAllLimiter{})(next)

	token := signedToken(t, jwt.MapClaims{"email": "nobody@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateEnforcesIPRateLimit(t *testing.T) {
	_, next := captureUser()
	handler := Authenticate(denyAllLimiter{}, allowAllLimiter{})(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comments", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRequireRole(t *testing.T) {
	protected := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no user in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/drafts", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("member without role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/drafts", nil)
		ctx := auth.SetUserInContext(req.Context(), &auth.UserContext{UserID: "user-1", Roles: []string{"member"}})

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/drafts", nil)
		ctx := auth.SetUserInContext(req.Context(), &auth.UserContext{UserID: "user-1", Roles: []string{"admin"}})

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
