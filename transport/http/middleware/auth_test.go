package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hallbook/config"
	"hallbook/infras/jwt"
	jwtMocks "hallbook/infras/jwt/mocks"
	otelMocks "hallbook/infras/otel/mocks"
	"hallbook/permissions"
	"hallbook/shared/constant"
	"hallbook/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testPermissions = `{
  "skip": false,
  "endpoints": [
    { "path": "/v1/auth/login", "method": "POST", "skip": true },
    { "path": "/v1/bookings", "method": "GET", "permissions": ["REQUESTER", "ADMIN"] },
    { "path": "/v1/bookings/{id}", "method": "DELETE", "permissions": ["ADMIN"] }
  ]
}`

const testAPIKey = "internal-key"

// whoami echoes the identity the middleware chain stored in the context.
func whoami(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(constant.ContextKeyUserID).(string)
	username, _ := r.Context().Value(constant.ContextKeyUsername).(string)
	role, _ := r.Context().Value(constant.ContextKeyUserRole).(string)

	w.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	_ = json.NewEncoder(w).Encode(map[string]string{"user_id": userID, "username": username, "role": role})
}

func newAuthRouter(t *testing.T) (http.Handler, *jwtMocks.MockJWT) {
	t.Helper()

	perms, err := permissions.Parse([]byte(testPermissions))
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.APIKey = testAPIKey

	jwtService := jwtMocks.NewMockJWT(gomock.NewController(t))
	mw := middleware.NewAuthRoleMiddleware(jwtService, otelMocks.NewOtel(), perms, cfg)

	router := chi.NewRouter()
	router.Group(func(group chi.Router) {
		group.Use(mw.APIKey, mw.Auth, mw.RBAC)
		group.Route("/v1", func(v1 chi.Router) {
			v1.Post("/auth/login", whoami)
			v1.Route("/bookings", func(bookings chi.Router) {
				bookings.Get("/", whoami)
				bookings.Delete("/{id}", whoami)
			})
		})
	})

	return router, jwtService
}

func claims(role string) *jwt.Claims {
	return &jwt.Claims{UserID: "u-1", Username: "alice", Role: role, TokenID: "t-1"}
}

func TestAuthAndRBAC(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		header     map[string]string
		mock       func(m *jwtMocks.MockJWT)
		wantCode   int
		wantError  string
		wantCaller string
	}{
		{
			name:     "public endpoint needs no token",
			method:   http.MethodPost,
			target:   "/v1/auth/login",
			wantCode: http.StatusOK,
		},
		{
			name:      "missing token",
			method:    http.MethodGet,
			target:    "/v1/bookings",
			wantCode:  http.StatusUnauthorized,
			wantError: jwt.ErrMissingToken.Error(),
		},
		{
			name:      "not a bearer token",
			method:    http.MethodGet,
			target:    "/v1/bookings",
			header:    map[string]string{constant.RequestHeaderAuthorization: "Basic abc"},
			wantCode:  http.StatusUnauthorized,
			wantError: jwt.ErrMalformed.Error(),
		},
		{
			name:   "expired token",
			method: http.MethodGet,
			target: "/v1/bookings",
			header: map[string]string{constant.RequestHeaderAuthorization: "Bearer old"},
			mock: func(m *jwtMocks.MockJWT) {
				m.EXPECT().ValidateToken(gomock.Any(), "old", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)
			},
			wantCode:  http.StatusUnauthorized,
			wantError: "Token has expired",
		},
		{
			name:   "token without username",
			method: http.MethodGet,
			target: "/v1/bookings",
			header: map[string]string{constant.RequestHeaderAuthorization: "Bearer partial"},
			mock: func(m *jwtMocks.MockJWT) {
				m.EXPECT().ValidateToken(gomock.Any(), "partial", jwt.AccessToken).
					Return(&jwt.Claims{UserID: "u-1", Role: constant.RoleAdmin}, nil)
			},
			wantCode:  http.StatusUnauthorized,
			wantError: "Invalid token claims",
		},
		{
			name:   "allowed role",
			method: http.MethodGet,
			target: "/v1/bookings",
			header: map[string]string{constant.RequestHeaderAuthorization: "Bearer good"},
			mock: func(m *jwtMocks.MockJWT) {
				m.EXPECT().ValidateToken(gomock.Any(), "good", jwt.AccessToken).Return(claims(constant.RoleRequester), nil)
			},
			wantCode:   http.StatusOK,
			wantCaller: "alice",
		},
		{
			name:   "role not listed",
			method: http.MethodGet,
			target: "/v1/bookings",
			header: map[string]string{constant.RequestHeaderAuthorization: "Bearer good"},
			mock: func(m *jwtMocks.MockJWT) {
				m.EXPECT().ValidateToken(gomock.Any(), "good", jwt.AccessToken).Return(claims(constant.RoleHOD), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:   "admin only route as requester",
			method: http.MethodDelete,
			target: "/v1/bookings/b-1",
			header: map[string]string{constant.RequestHeaderAuthorization: "Bearer good"},
			mock: func(m *jwtMocks.MockJWT) {
				m.EXPECT().ValidateToken(gomock.Any(), "good", jwt.AccessToken).Return(claims(constant.RoleRequester), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:   "admin only route as admin",
			method: http.MethodDelete,
			target: "/v1/bookings/b-1",
			header: map[string]string{constant.RequestHeaderAuthorization: "Bearer good"},
			mock: func(m *jwtMocks.MockJWT) {
				m.EXPECT().ValidateToken(gomock.Any(), "good", jwt.AccessToken).Return(claims(constant.RoleAdmin), nil)
			},
			wantCode:   http.StatusOK,
			wantCaller: "alice",
		},
		{
			name:       "api key bypasses token checks",
			method:     http.MethodDelete,
			target:     "/v1/bookings/b-1",
			header:     map[string]string{constant.RequestHeaderAPIKey: testAPIKey},
			wantCode:   http.StatusOK,
			wantCaller: constant.ContextSystem,
		},
		{
			name:     "wrong api key",
			method:   http.MethodGet,
			target:   "/v1/bookings",
			header:   map[string]string{constant.RequestHeaderAPIKey: "guess"},
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, jwtService := newAuthRouter(t)
			if tt.mock != nil {
				tt.mock(jwtService)
			}

			req := httptest.NewRequest(tt.method, tt.target, nil)
			for key, value := range tt.header {
				req.Header.Set(key, value)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, payload["error"])
			}

			if tt.wantCaller != "" {
				assert.Equal(t, tt.wantCaller, payload["username"])
			}
		})
	}
}

func TestRBACWithoutPermissions(t *testing.T) {
	cfg := &config.Config{}
	mw := middleware.NewAuthRoleMiddleware(jwtMocks.NewMockJWT(gomock.NewController(t)), otelMocks.NewOtel(), nil, cfg)

	router := chi.NewRouter()
	router.With(mw.RBAC).Get("/v1/bookings", whoami)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bookings", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
