package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestOPAEvaluator_DefaultPolicy(t *testing.T) {
	e, err := NewOPAEvaluator(context.Background(), "", testLogger())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	tests := []struct {
		sender     string
		wantAllow  bool
		wantReason string
	}{
		{"551199999999@s.whatsapp.net", true, ""},
		{"120363000000000000@g.us", false, "group"},
		{"status@broadcast", false, "broadcast"},
		{"123@newsletter", false, "newsletter"},
		{"", false, "empty_sender"},
	}
	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			d := e.EvaluateInbound(context.Background(), InboundInput{TenantID: "T1", Sender: tt.sender, Kind: "text"})
			if d.Allow != tt.wantAllow {
				t.Errorf("Allow = %v, want %v", d.Allow, tt.wantAllow)
			}
			if tt.wantReason != "" && (len(d.Reasons) != 1 || d.Reasons[0] != tt.wantReason) {
				t.Errorf("Reasons = %v, want [%s]", d.Reasons, tt.wantReason)
			}
		})
	}
}

func TestOPAEvaluator_CustomModule(t *testing.T) {
	module := `package salesbot.inbound

default allow := true

allow := false if input.kind == "audio"
`
	e, err := NewOPAEvaluator(context.Background(), module, testLogger())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if d := e.EvaluateInbound(context.Background(), InboundInput{Sender: "1@s.whatsapp.net", Kind: "audio"}); d.Allow {
		t.Error("audio should be denied by the custom module")
	}
	if d := e.EvaluateInbound(context.Background(), InboundInput{Sender: "1@g.us", Kind: "text"}); !d.Allow {
		t.Error("custom module replaces the default group rule")
	}
}

func TestOPAEvaluator_FailOpen(t *testing.T) {
	// allow is a string, so the decision cannot be read.
	module := `package salesbot.inbound

allow := "yes"
`
	e, err := NewOPAEvaluator(context.Background(), module, testLogger())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if d := e.EvaluateInbound(context.Background(), InboundInput{Sender: "1@g.us"}); !d.Allow {
		t.Error("evaluation errors should allow the message")
	}
	if err := e.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck should report the unreadable decision")
	}
}

func TestOPAEvaluator_InvalidModule(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package salesbot.inbound\nallow if {", testLogger()); err == nil {
		t.Error("invalid rego should fail to compile")
	}
}

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	e, err := NewOPAEvaluator(context.Background(), "", testLogger())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
