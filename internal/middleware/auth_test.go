package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type stubValidator map[string]*types.TokenClaims

func (s stubValidator) ValidateToken(_ context.Context, token string) (*types.TokenClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

var validator = stubValidator{
	"user-token":  {UserID: 7, Role: "user"},
	"admin-token": {UserID: 1, Role: "admin"},
}

func newAuthRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter(AuthMiddleware(validator))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bearer", "Bearer user-token", http.StatusOK},
		{"legacy token prefix", "Token user-token", http.StatusOK},
		{"wrong scheme", "Basic user-token", http.StatusUnauthorized},
		{"no scheme", "user-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, do(r, tt.header).Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	r := newAuthRouter(OptionalAuth(validator))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0}`, w.Body.String())

	w = do(r, "Bearer user-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer nope").Code)
}

type failingValidator struct{}

func (failingValidator) ValidateToken(context.Context, string) (*types.TokenClaims, error) {
	return nil, fmt.Errorf("%w: dial tcp 10.0.0.5:6379: connection refused", service.ErrAuthUnavailable)
}

func TestAuthBackendFailureIsServerError(t *testing.T) {
	for name, mw := range map[string]gin.HandlerFunc{
		"required": AuthMiddleware(failingValidator{}),
		"optional": OptionalAuth(failingValidator{}),
	} {
		t.Run(name, func(t *testing.T) {
			w := do(newAuthRouter(mw), "Bearer user-token")
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
			assert.NotContains(t, w.Body.String(), "6379")
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter(AuthMiddleware(validator), RequireAdmin())

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer user-token").Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer admin-token").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
}

func TestClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := Claims(c)
	assert.False(t, ok)

	c.Set(ContextClaims, validator["user-token"])
	claims, ok := Claims(c)
	assert.True(t, ok)
	assert.Equal(t, uint(7), claims.UserID)
}
