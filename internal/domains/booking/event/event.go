// Package event publishes booking decisions to the audit stream.
package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=../mocks/event_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"hallbook/config"
	"hallbook/infras/kafka"
	"hallbook/infras/otel"
	"hallbook/shared/constant"

	"github.com/rs/zerolog/log"
)

// BookingDecided is the payload written for every approve or reject.
type BookingDecided struct {
	BookingID    string    `json:"booking_id"`
	Action       string    `json:"action"`
	ActorID      string    `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	StatusBefore string    `json:"status_before"`
	StatusAfter  string    `json:"status_after"`
	Reason       *string   `json:"reason,omitempty"`
	DecidedAt    time.Time `json:"decided_at"`
}

type Publisher interface {
	PublishDecision(ctx context.Context, event BookingDecided) error
}

type publisherImpl struct {
	client kafka.Client
	cfg    *config.Config
	otel   otel.Otel
}

func NewPublisher(client kafka.Client, cfg *config.Config, otel otel.Otel) Publisher {
	return &publisherImpl{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

// PublishDecision keys the message by booking so that all decisions on one
// booking land on the same partition in order.
func (p *publisherImpl) PublishDecision(ctx context.Context, event BookingDecided) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".PublishDecision")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !p.cfg.Booking.PublishDecisions {
		log.Debug().Str("booking_id", event.BookingID).Msg("decision publishing disabled")

		return nil
	}

	scope.SetAttributes(map[string]any{
		"booking_id": event.BookingID,
		"action":     event.Action,
	})

	err = p.client.SendMessages(ctx, p.cfg.Kafka.Topics.BookingDecisions, kafka.Message{
		Key:   event.BookingID,
		Value: event,
	})
	if err != nil {
		return fmt.Errorf("failed to publish booking decision: %w", err)
	}

	return nil
}
