package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hallbook/config"
	otelMocks "hallbook/infras/otel/mocks"
	cacheMocks "hallbook/shared/cache/mocks"
	"hallbook/shared/constant"
	"hallbook/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func limiterConfig(enable bool) *config.Config {
	cfg := &config.Config{}
	cfg.App.RateLimiter.Enable = enable
	cfg.App.RateLimiter.MaxRequests = 2
	cfg.App.RateLimiter.WindowSeconds = 60

	return cfg
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		enable        bool
		mock          func(m *cacheMocks.MockRedisCache)
		wantCode      int
		wantRemaining string
	}{
		{
			name:     "disabled",
			enable:   false,
			wantCode: http.StatusOK,
		},
		{
			name:   "first request in window",
			enable: true,
			mock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Increment(gomock.Any(), "limiter:10.0.0.1:unknown", 60).Return(int64(1), nil)
			},
			wantCode:      http.StatusOK,
			wantRemaining: "1",
		},
		{
			name:   "last allowed request",
			enable: true,
			mock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Increment(gomock.Any(), gomock.Any(), 60).Return(int64(2), nil)
			},
			wantCode:      http.StatusOK,
			wantRemaining: "0",
		},
		{
			name:   "limit exceeded",
			enable: true,
			mock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Increment(gomock.Any(), gomock.Any(), 60).Return(int64(3), nil)
			},
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:   "cache unavailable",
			enable: true,
			mock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Increment(gomock.Any(), gomock.Any(), 60).Return(int64(0), errors.New("connection refused"))
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redisCache := cacheMocks.NewMockRedisCache(gomock.NewController(t))
			if tt.mock != nil {
				tt.mock(redisCache)
			}

			mw := middleware.NewAppMiddleware(otelMocks.NewOtel(), limiterConfig(tt.enable), redisCache)

			req := httptest.NewRequest(http.MethodGet, "/v1/halls", nil)
			req.Header.Set(constant.RequestHeaderForwardedFor, "10.0.0.1, 172.16.0.1")

			rec := httptest.NewRecorder()
			mw.RateLimit()(http.HandlerFunc(ok)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantRemaining, rec.Header().Get(constant.RequestHeaderRateLimitRemaining))
		})
	}
}

func TestShutdown(t *testing.T) {
	mw := middleware.NewAppMiddleware(otelMocks.NewOtel(), &config.Config{}, nil)

	draining := false
	handler := mw.Shutdown(func() bool { return draining })(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/halls", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	draining = true

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/halls", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), constant.ResponseErrorPrepareShutdown)
}

func TestTracingKeepsStatus(t *testing.T) {
	mw := middleware.NewAppMiddleware(otelMocks.NewOtel(), &config.Config{}, nil)

	router := chi.NewRouter()
	router.Use(mw.Tracing)
	router.Get("/v1/halls/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/halls/h-1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
