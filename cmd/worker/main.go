package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hallbook/config"
	"hallbook/di"
	"hallbook/shared/logger"

	"github.com/rs/zerolog/log"
)

// The worker tails the booking decision topic and writes the audit trail.
func main() {
	logger.InitLogger()

	logger.Configure(config.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := di.InitializeDecisionConsumer()

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Decision consumer stopped")
	}

	log.Info().Msg("Decision consumer shut down.")
}
