package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventSessionStatus      = "session_status"
	EventSessionLoggedOut   = "session_logged_out"
	EventReconnectScheduled = "reconnect_scheduled"
	EventMessageReplied     = "message_replied"
	EventMessageBlocked     = "message_blocked"
	EventMessageFailed      = "message_failed"
	EventGRPCRequest        = "grpc_request"
)

// Event is one telemetry record. It is serialized as JSON on Kafka and read back by the worker.
type Event struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent builds an event with a fresh id and the current time. meta is JSON-encoded; a value
// that cannot be encoded is dropped.
func NewEvent(tenantID, eventType, source string, meta any) *Event {
	e := &Event{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		EventType: eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			e.Metadata = b
		}
	}
	return e
}
