//go:build wireinject
// +build wireinject

package di

import (
	"hallbook/config"
	"hallbook/infras/jwt"
	"hallbook/infras/kafka"
	"hallbook/infras/otel"
	"hallbook/infras/postgres"
	"hallbook/infras/redis"
	"hallbook/infras/s3"
	authService "hallbook/internal/domains/auth/service"
	bookingEvent "hallbook/internal/domains/booking/event"
	bookingRepository "hallbook/internal/domains/booking/repository"
	bookingService "hallbook/internal/domains/booking/service"
	hallRepository "hallbook/internal/domains/hall/repository"
	hallService "hallbook/internal/domains/hall/service"
	userRepository "hallbook/internal/domains/user/repository"
	userService "hallbook/internal/domains/user/service"
	authHandler "hallbook/internal/handlers/auth"
	bookingHandler "hallbook/internal/handlers/booking"
	hallHandler "hallbook/internal/handlers/hall"
	userHandler "hallbook/internal/handlers/user"
	"hallbook/permissions"
	"hallbook/shared/cache"
	"hallbook/transport/http"
	"hallbook/transport/http/middleware"
	"hallbook/transport/http/router"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var authDomain = wire.NewSet(
	authService.New,
)

var hallDomain = wire.NewSet(
	hallRepository.New,
	hallService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingEvent.NewPublisher,
	bookingService.New,
)

var domains = wire.NewSet(
	userDomain,
	authDomain,
	hallDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	hallHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeDecisionConsumer() bookingEvent.Consumer {
	wire.Build(
		config.Get,
		otel.New,
		kafka.New,
		bookingEvent.NewConsumer,
	)

	return nil
}
