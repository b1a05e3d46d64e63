package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motor-insurance/internal/auth"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	authService, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	return authService
}

func tokenFor(t *testing.T, authService *auth.Service, role models.Role) string {
	t.Helper()
	token, _, err := authService.GenerateToken(&models.User{
		ID:       primitive.NewObjectID(),
		Username: string(role) + "-user",
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env respond.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	authService := newAuthService(t)
	middleware := NewAuthMiddleware(authService)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, models.RoleAgent))
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			claims, ok := GetUserFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "agent-user", claims.Username)
			assert.Equal(t, models.RoleAgent, claims.Role)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, respond.CodeUnauthorized, errorCode(t, w))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip auth paths", func(t *testing.T) {
		for _, path := range []string{"/api/auth/login", "/health", "/metrics"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			middleware.Authenticate(handler).ServeHTTP(w, req)
			assert.True(t, handlerCalled, path)
		}
	})

	t.Run("protected auth paths", func(t *testing.T) {
		for _, path := range []string{"/healthcheck-admin", "/api/auth/register", "/api/auth/me"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()
			middleware.Authenticate(http.NotFoundHandler()).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		}
	})
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	authService := newAuthService(t)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name     string
		role     models.Role
		required models.Role
		want     int
	}{
		{"admin passes any role", models.RoleAdmin, models.RoleSupervisor, http.StatusOK},
		{"matching role", models.RoleSupervisor, models.RoleSupervisor, http.StatusOK},
		{"agent on admin route", models.RoleAgent, models.RoleAdmin, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/users", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, tt.role))
			w := httptest.NewRecorder()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			middleware.Authenticate(middleware.RequireRole(tt.required)(handler)).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	t.Run("no user in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		middleware.RequireRole(models.RoleAdmin)(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/api/users", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	authService := newAuthService(t)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name   string
		role   models.Role
		action string
		want   int
	}{
		{"admin manages users", models.RoleAdmin, models.ActionManageUsers, http.StatusOK},
		{"supervisor cannot manage users", models.RoleSupervisor, models.ActionManageUsers, http.StatusForbidden},
		{"agent records payments", models.RoleAgent, models.ActionRecordPayments, http.StatusOK},
		{"agent cannot delete vehicles", models.RoleAgent, models.ActionDeleteVehicles, http.StatusForbidden},
		{"viewer calculates quotes", models.RoleViewer, models.ActionCalculateQuote, http.StatusOK},
		{"viewer cannot price vehicles", models.RoleViewer, models.ActionPriceVehicles, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/vehicles", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, tt.role))
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			middleware.Authenticate(middleware.RequirePermission(tt.action)(handler)).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want == http.StatusOK, handlerCalled)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, respond.CodeForbidden, errorCode(t, w))
			}
		})
	}
}

func TestGetUserFromContext(t *testing.T) {
	claims := &models.Claims{
		UserID:   "test-id",
		Username: "testuser",
		Role:     models.RoleAdmin,
	}

	retrievedClaims, ok := GetUserFromContext(WithUser(context.Background(), claims))
	assert.True(t, ok)
	assert.Equal(t, claims, retrievedClaims)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
}
