package domain

import "testing"

func TestStatus_CanTransition(t *testing.T) {
	all := []Status{StatusConnecting, StatusAwaitingPairing, StatusConnected, StatusDisconnected}
	allowed := map[Status][]Status{
		"":                    {StatusConnecting},
		StatusDisconnected:    {StatusConnecting},
		StatusConnecting:      {StatusAwaitingPairing, StatusConnected, StatusDisconnected},
		StatusAwaitingPairing: {StatusAwaitingPairing, StatusConnected, StatusDisconnected},
		StatusConnected:       {StatusDisconnected},
	}
	for from, targets := range allowed {
		ok := make(map[Status]bool, len(targets))
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			name := string(from) + "->" + string(to)
			t.Run(name, func(t *testing.T) {
				if got := from.CanTransition(to); got != ok[to] {
					t.Errorf("CanTransition = %v, want %v", got, ok[to])
				}
			})
		}
	}
}

func TestStatus_Live(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusConnecting, true},
		{StatusAwaitingPairing, true},
		{StatusConnected, true},
		{StatusDisconnected, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.status.Live(); got != tt.want {
			t.Errorf("%q.Live() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatus_AwaitingPairingWireValue(t *testing.T) {
	if StatusAwaitingPairing.String() != "QR_CODE_READY" {
		t.Errorf("String() = %q, want QR_CODE_READY", StatusAwaitingPairing.String())
	}
}
