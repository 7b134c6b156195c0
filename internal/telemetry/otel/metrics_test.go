package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Peixotim/sales-bot/internal/telemetry"
)

func TestMetricsEmitter_CountsByType(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewMetricsEmitter(mp.Meter(instrumentationName))
	if err != nil {
		t.Fatalf("NewMetricsEmitter: %v", err)
	}
	ctx := context.Background()
	_ = m.Emit(ctx, &telemetry.Event{EventType: telemetry.EventMessageReplied, Source: "ingest"})
	_ = m.Emit(ctx, &telemetry.Event{EventType: telemetry.EventMessageReplied, Source: "ingest"})
	_ = m.Emit(ctx, &telemetry.Event{EventType: telemetry.EventMessageBlocked, Source: "ingest"})
	_ = m.Emit(ctx, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "salesbot.events" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("data = %T", md.Data)
			}
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("event_type"))
				counts[v.AsString()] = dp.Value
			}
		}
	}
	if counts[telemetry.EventMessageReplied] != 2 || counts[telemetry.EventMessageBlocked] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestMetricsEmitter_NilSafe(t *testing.T) {
	var m *MetricsEmitter
	if err := m.Emit(context.Background(), &telemetry.Event{}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
}
