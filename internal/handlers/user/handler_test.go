package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	otelMocks "hallbook/infras/otel/mocks"
	"hallbook/internal/domains/user/mocks"
	"hallbook/internal/domains/user/model/dto"
	"hallbook/internal/handlers/user"
	"hallbook/shared/constant"
	gDto "hallbook/shared/dto"
	"hallbook/shared/failure"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const currentUserID = "b3a8f2c4-1e2d-4f6a-8c9b-7d1e2f3a4b5c"

func setup(t *testing.T) (http.Handler, *mocks.MockUserService) {
	t.Helper()

	svc := mocks.NewMockUserService(gomock.NewController(t))
	handler := user.New(svc, otelMocks.NewOtel())

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), constant.ContextKeyUserID, currentUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	handler.Router(router)

	return router, svc
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestGetMe(t *testing.T) {
	router, svc := setup(t)

	svc.EXPECT().Get(gomock.Any(), currentUserID).Return(dto.UserResponse{ID: currentUserID, Username: "alice"}, nil)

	rec := serve(router, http.MethodGet, "/users/me", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data dto.UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "alice", payload.Data.Username)
}

func TestGetUsers(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "no filters",
			target:    "/users",
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
		{
			name:      "username and role",
			target:    "/users?username=ali&role=HOD",
			wantWhere: "(LOWER(users.username) LIKE LOWER(:username) AND users.role = :role)",
			wantArgs:  map[string]any{"username": "%ali%", "role": "HOD"},
		},
		{
			name:      "active flag",
			target:    "/users?active=false",
			wantWhere: "(users.active = :active)",
			wantArgs:  map[string]any{"active": false},
		},
		{
			name:      "unparseable active flag is ignored",
			target:    "/users?active=sometimes",
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
		{
			name:      "blank values are ignored",
			target:    "/users?email=&role=%20",
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setup(t)

			svc.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup) (dto.GetUsersResponse, error) {
					where, args := filter.GetWhereClause()

					assert.Equal(t, tt.wantWhere, where)
					assert.Equal(t, tt.wantArgs, args)

					return dto.GetUsersResponse{}, nil
				})

			rec := serve(router, http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, svc := setup(t)

		svc.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req dto.CreateUserRequest) (dto.UserResponse, error) {
				assert.Equal(t, constant.RoleFaculty, req.Role)

				return dto.UserResponse{ID: "u-2", Role: req.Role}, nil
			})

		rec := serve(router, http.MethodPost, "/users",
			`{"username":"bob","email":"bob@example.com","password":"password123","role":"FACULTY"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		router, _ := setup(t)

		rec := serve(router, http.MethodPost, "/users",
			`{"username":"bob","email":"bob@example.com","password":"password123","role":"DEAN"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		router, svc := setup(t)

		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(dto.UserResponse{}, failure.Conflict("username already exists"))

		rec := serve(router, http.MethodPost, "/users",
			`{"username":"bob","email":"bob@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUpdateAndDeleteUser(t *testing.T) {
	router, svc := setup(t)

	svc.EXPECT().Update(gomock.Any(), gomock.Any(), "u-2").
		DoAndReturn(func(_ context.Context, req dto.UpdateUserRequest, _ string) error {
			require.NotNil(t, req.Role)
			assert.Equal(t, constant.RoleHOD, *req.Role)
			assert.Nil(t, req.Email)

			return nil
		})
	svc.EXPECT().Delete(gomock.Any(), "u-3").Return(failure.NotFound("user not found"))

	rec := serve(router, http.MethodPatch, "/users/u-2", `{"role":"HOD"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodDelete, "/users/u-3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
