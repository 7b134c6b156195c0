package domain

import "time"

// AuditLog is one recorded administrative or session event.
type AuditLog struct {
	ID       string
	TenantID string
	// Actor is the token subject that caused the event, or "system" for internal events.
	Actor     string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
