package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	otelMocks "hallbook/infras/otel/mocks"
	"hallbook/internal/domains/auth/mocks"
	"hallbook/internal/domains/auth/model/dto"
	"hallbook/internal/handlers/auth"
	"hallbook/shared/constant"
	"hallbook/shared/failure"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setup(t *testing.T, userID string) (http.Handler, *mocks.MockAuth) {
	t.Helper()

	svc := mocks.NewMockAuth(gomock.NewController(t))
	handler := auth.New(svc, otelMocks.NewOtel())

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), constant.ContextKeyUserID, userID))
			}

			next.ServeHTTP(w, r)
		})
	})
	handler.Router(router)

	return router, svc
}

func post(handler http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		mock     func(svc *mocks.MockAuth)
		wantCode int
	}{
		{
			name: "registered",
			body: `{"username":"alice","email":"alice@example.com","password":"password123"}`,
			mock: func(svc *mocks.MockAuth) {
				svc.EXPECT().Register(gomock.Any(), dto.RegisterRequest{
					Username: "alice",
					Email:    "alice@example.com",
					Password: "password123",
				}).Return(nil)
			},
			wantCode: http.StatusCreated,
		},
		{
			name:     "short password",
			body:     `{"username":"alice","email":"alice@example.com","password":"short"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid email",
			body:     `{"username":"alice","email":"alice","password":"password123"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "taken",
			body: `{"username":"alice","email":"alice@example.com","password":"password123"}`,
			mock: func(svc *mocks.MockAuth) {
				svc.EXPECT().Register(gomock.Any(), gomock.Any()).Return(failure.Conflict("username already exists"))
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setup(t, "")
			if tt.mock != nil {
				tt.mock(svc)
			}

			rec := post(router, "/auth/register", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("token pair", func(t *testing.T) {
		router, svc := setup(t, "")

		svc.EXPECT().Login(gomock.Any(), dto.LoginRequest{Username: "alice", Password: "password123"}).
			Return(dto.LoginResponse{AccessToken: "access", RefreshToken: "refresh", Role: constant.RoleRequester}, nil)

		rec := post(router, "/auth/login", `{"username":"alice","password":"password123"}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Data dto.LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "access", payload.Data.AccessToken)
		assert.Equal(t, constant.RoleRequester, payload.Data.Role)
	})

	t.Run("bad credentials", func(t *testing.T) {
		router, svc := setup(t, "")

		svc.EXPECT().Login(gomock.Any(), gomock.Any()).Return(dto.LoginResponse{}, failure.Unauthorized("invalid credentials"))

		rec := post(router, "/auth/login", `{"username":"alice","password":"wrong-password"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		router, _ := setup(t, "")

		rec := post(router, "/auth/login", `{"username":"alice"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	router, svc := setup(t, "")

	svc.EXPECT().RefreshToken(gomock.Any(), dto.RefreshTokenRequest{RefreshToken: "refresh"}).
		Return(dto.LoginResponse{AccessToken: "next"}, nil)

	rec := post(router, "/auth/refresh-token", `{"refresh_token":"refresh"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword(t *testing.T) {
	t.Run("changed", func(t *testing.T) {
		router, svc := setup(t, "u-1")

		svc.EXPECT().ChangePassword(gomock.Any(), dto.ChangePasswordRequest{
			CurrentPassword: "password123",
			NewPassword:     "password456",
		}, "u-1").Return(nil)

		rec := post(router, "/auth/change-password", `{"current_password":"password123","new_password":"password456"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("same password", func(t *testing.T) {
		router, _ := setup(t, "u-1")

		rec := post(router, "/auth/change-password", `{"current_password":"password123","new_password":"password123"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
