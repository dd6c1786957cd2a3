package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hallbook/infras/otel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func record(t *testing.T, fn func(scope otel.Scope)) sdktrace.ReadOnlySpan {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "booking.Approve")
	scope := otel.NewScope(span)
	fn(scope)
	scope.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)

	return ended[0]
}

func TestScope_SetAttributes(t *testing.T) {
	decidedAt := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)

	span := record(t, func(scope otel.Scope) {
		scope.SetAttributes(map[string]any{
			"booking_id": "b-1",
			"offset":     int64(42),
			"page":       2,
			"terminal":   true,
			"decided_at": decidedAt,
			"roles":      []string{"FACULTY", "HOD"},
		})
		scope.SetAttribute("other", struct{ N int }{N: 3})
	})

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		got[kv.Key] = kv.Value
	}

	assert.Equal(t, "b-1", got["booking_id"].AsString())
	assert.Equal(t, int64(42), got["offset"].AsInt64())
	assert.Equal(t, int64(2), got["page"].AsInt64())
	assert.True(t, got["terminal"].AsBool())
	assert.Equal(t, "2026-11-02T09:00:00Z", got["decided_at"].AsString())
	assert.Equal(t, []string{"FACULTY", "HOD"}, got["roles"].AsStringSlice())
	assert.Equal(t, "{3}", got["other"].AsString())
}

func TestScope_TraceIfError(t *testing.T) {
	span := record(t, func(scope otel.Scope) {
		scope.TraceIfError(nil)
	})
	assert.Equal(t, codes.Unset, span.Status().Code)

	span = record(t, func(scope otel.Scope) {
		scope.AddEvent("Booking approved")
		scope.TraceIfError(errors.New("booking is already approved"))
	})
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "booking is already approved", span.Status().Description)

	var names []string
	for _, event := range span.Events() {
		names = append(names, event.Name)
	}
	assert.Contains(t, names, "Booking approved")
	assert.Contains(t, names, "exception")
}
