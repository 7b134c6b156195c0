package producer

import (
	"context"
	"testing"

	"github.com/Peixotim/sales-bot/internal/telemetry"
)

func TestNewKafkaProducer_DisabledWithoutConfig(t *testing.T) {
	tests := []struct {
		name    string
		brokers []string
		topic   string
	}{
		{"no brokers", nil, "salesbot-telemetry"},
		{"no topic", []string{"localhost:9092"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if p := NewKafkaProducer(tt.brokers, tt.topic); p != nil {
				t.Errorf("NewKafkaProducer = %v, want nil", p)
			}
		})
	}
}

func TestKafkaProducer_NilSafe(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), telemetry.NewEvent("T1", "x", "y", nil)); err != nil {
		t.Errorf("Emit on nil producer: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close on nil producer: %v", err)
	}
}

func TestKafkaProducer_ImplementsInterfaces(t *testing.T) {
	var _ Producer = (*KafkaProducer)(nil)
	var _ telemetry.EventEmitter = (*KafkaProducer)(nil)
}
