package logger

import (
	"io"
	"os"
	"time"

	"hallbook/config"
	"hallbook/shared/constant"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const auditLogType = "audit"

func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	log.Trace().Msg("Zerolog initialized.")
}

// Configure applies the configured level. Production writes plain JSON lines
// instead of the console format.
func Configure(cfg *config.Config) {
	if cfg.Server.Env == constant.ServerEnvProduction {
		UseJSON(os.Stdout)
	}

	SetLogLevel(cfg)
}

func UseJSON(out io.Writer) {
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

// Audit returns the logger for the decision audit trail.
func Audit() *zerolog.Logger {
	audit := log.With().Str("log_type", auditLogType).Logger()

	return &audit
}

func SetLogLevel(config *config.Config) {
	level, err := zerolog.ParseLevel(config.Server.LogLevel)
	if err != nil {
		level = zerolog.TraceLevel
		log.Trace().Str("loglevel", level.String()).Msg("Environment has no log level set up, using default.")
	} else {
		log.Trace().Str("loglevel", level.String()).Msg("Desired log level detected.")
	}

	zerolog.SetGlobalLevel(level)
}
