package config_test

import (
	"testing"

	"hallbook/config"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("APP_RATE_LIMITER_ENABLE", "true")

	cfg := config.Get()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.App.RateLimiter.Enable)

	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, 100, cfg.App.RateLimiter.MaxRequests)
	assert.Equal(t, 300, cfg.Cache.TTL)
	assert.Equal(t, 15, cfg.JWT.AccessExpireMin)
	assert.Equal(t, "booking.decisions", cfg.Kafka.Topics.BookingDecisions)
	assert.True(t, cfg.Booking.PublishDecisions)

	assert.Same(t, cfg, config.Get(), "configuration is loaded once")
}
