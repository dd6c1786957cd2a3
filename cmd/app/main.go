package main

import (
	"hallbook/config"
	"hallbook/di"
	"hallbook/helper"
	"hallbook/shared/logger"

	"github.com/rs/zerolog/log"
)

// @title Hallbook API
// @version 1.0
// @description Hall reservations with a faculty and head of department approval chain.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.InitLogger()

	cfg := config.Get()

	logger.Configure(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
