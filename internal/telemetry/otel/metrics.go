package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Peixotim/sales-bot/internal/telemetry"
)

// MetricsEmitter counts telemetry events by type and source.
type MetricsEmitter struct {
	events metric.Int64Counter
}

// NewMetricsEmitter registers the salesbot.events counter on meter.
func NewMetricsEmitter(meter metric.Meter) (*MetricsEmitter, error) {
	c, err := meter.Int64Counter("salesbot.events",
		metric.WithDescription("Telemetry events by type and source"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, err
	}
	return &MetricsEmitter{events: c}, nil
}

// Emit increments the counter for the event's type and source.
func (m *MetricsEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if m == nil || event == nil {
		return nil
	}
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", event.EventType),
		attribute.String("source", event.Source),
	))
	return nil
}
