package audit

import "testing"

func TestParseFullMethod(t *testing.T) {
	tests := []struct {
		fullMethod string
		action     string
		resource   string
		mutating   bool
	}{
		{"/salesbot.contacts.v1.ContactService/Block", "block", "contact", true},
		{"/salesbot.contacts.v1.ContactService/Unblock", "unblock", "contact", true},
		{"/salesbot.contacts.v1.ContactService/ListBlocked", "list", "contact", false},
		{"/salesbot.contacts.v1.ContactService/GetBlocked", "get", "contact", false},
		{"/salesbot.session.v1.SessionService/GetPairingCode", "get", "session", false},
		{"/salesbot.session.v1.SessionService/Subscribe", "subscribe", "session", false},
		{"/salesbot.session.v1.SessionService/Logout", "logout", "session", true},
		{"/salesbot.conversation.v1.ConversationService/GetHistory", "get", "conversation", false},
		{"/Foo/Bar", "bar", "unknown", true},
		{"no-slash", "unknown", "unknown", true},
	}
	for _, tt := range tests {
		t.Run(tt.fullMethod, func(t *testing.T) {
			ar := ParseFullMethod(tt.fullMethod)
			if ar.Action != tt.action {
				t.Errorf("action = %q, want %q", ar.Action, tt.action)
			}
			if ar.Resource != tt.resource {
				t.Errorf("resource = %q, want %q", ar.Resource, tt.resource)
			}
			if ar.Mutating() != tt.mutating {
				t.Errorf("Mutating() = %v, want %v", ar.Mutating(), tt.mutating)
			}
		})
	}
}
