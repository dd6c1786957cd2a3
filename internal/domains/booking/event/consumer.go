package event

import (
	"context"
	"fmt"

	"hallbook/config"
	"hallbook/infras/kafka"
	"hallbook/infras/otel"
	"hallbook/shared/constant"
	"hallbook/shared/logger"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Consumer writes every booking decision on the stream to the audit log.
type Consumer interface {
	Run(ctx context.Context) error
	Handle(ctx context.Context, message kafkaGo.Message) error
}

type consumerImpl struct {
	client kafka.Client
	cfg    *config.Config
	otel   otel.Otel
}

func NewConsumer(client kafka.Client, cfg *config.Config, otel otel.Otel) Consumer {
	return &consumerImpl{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

// Run blocks until ctx is cancelled.
func (c *consumerImpl) Run(ctx context.Context) error {
	topic := c.cfg.Kafka.Topics.BookingDecisions

	log.Info().Str("topic", topic).Str("group", c.cfg.Kafka.ConsumerGroup).Msg("consuming booking decisions")

	if err := c.client.Consume(ctx, c.cfg.Kafka.ConsumerGroup, topic, c.Handle); err != nil {
		return fmt.Errorf("failed to consume booking decisions: %w", err)
	}

	return nil
}

func (c *consumerImpl) Handle(ctx context.Context, message kafkaGo.Message) (err error) {
	_, scope := c.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".HandleDecision")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	decided, err := kafka.DecodeKafkaMessage[BookingDecided](message)
	if err != nil {
		// skipped rather than retried
		log.Error().Err(err).Str("key", string(message.Key)).Msg("dropping malformed booking decision")

		return nil
	}

	scope.SetAttributes(map[string]any{
		"booking_id": decided.BookingID,
		"action":     decided.Action,
	})

	audit := logger.Audit().Info().
		Str("booking_id", decided.BookingID).
		Str("action", decided.Action).
		Str("actor_id", decided.ActorID).
		Str("actor_role", decided.ActorRole).
		Str("status_before", decided.StatusBefore).
		Str("status_after", decided.StatusAfter).
		Time("decided_at", decided.DecidedAt).
		Int64("offset", message.Offset)

	if decided.Reason != nil {
		audit = audit.Str("reason", *decided.Reason)
	}

	audit.Msg("booking decision")

	return nil
}
