package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"hallbook/config"
	"hallbook/shared/logger"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preserve(t *testing.T) {
	t.Helper()

	originalLogger := log.Logger
	originalLevel := zerolog.GlobalLevel()
	originalTimeFormat := zerolog.TimeFieldFormat

	t.Cleanup(func() {
		log.Logger = originalLogger
		zerolog.SetGlobalLevel(originalLevel)
		zerolog.TimeFieldFormat = originalTimeFormat
	})
}

func TestInitLogger(t *testing.T) {
	preserve(t)

	logger.InitLogger()

	assert.Equal(t, zerolog.TimeFormatUnix, zerolog.TimeFieldFormat)
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())
}

func TestErrorWithStack(t *testing.T) {
	preserve(t)

	var buf bytes.Buffer
	log.Logger = log.Output(&buf)

	logger.ErrorWithStack(errors.New("test error"))

	assert.Contains(t, buf.String(), "test error")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestAudit(t *testing.T) {
	preserve(t)

	var buf bytes.Buffer
	logger.UseJSON(&buf)

	logger.Audit().Info().Str("booking_id", "b-1").Msg("booking decided")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "audit", line["log_type"])
	assert.Equal(t, "b-1", line["booking_id"])
	assert.Equal(t, "booking decided", line["message"])
}

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     zerolog.Level
	}{
		{name: "trace", logLevel: "trace", want: zerolog.TraceLevel},
		{name: "debug", logLevel: "debug", want: zerolog.DebugLevel},
		{name: "info", logLevel: "info", want: zerolog.InfoLevel},
		{name: "warn", logLevel: "warn", want: zerolog.WarnLevel},
		{name: "error", logLevel: "error", want: zerolog.ErrorLevel},
		{name: "disabled", logLevel: "disabled", want: zerolog.Disabled},
		{name: "invalid level defaults to trace", logLevel: "invalid_level", want: zerolog.TraceLevel},
		{name: "empty level", logLevel: "", want: zerolog.NoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preserve(t)

			var buf bytes.Buffer
			log.Logger = log.Output(&buf)

			cfg := &config.Config{}
			cfg.Server.LogLevel = tt.logLevel

			logger.SetLogLevel(cfg)

			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestConfigure(t *testing.T) {
	preserve(t)

	cfg := &config.Config{}
	cfg.Server.Env = "development"
	cfg.Server.LogLevel = "warn"

	logger.Configure(cfg)

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
