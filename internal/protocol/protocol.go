// Package protocol declares what the bot needs from the messaging network library.
// The library owns the wire format and cryptography; this repo only drives it through
// these interfaces and reacts to the raw events it emits.
package protocol

import (
	"context"
	"time"
)

// Close reason codes reported with a Closed event. Only ReasonLoggedOut is terminal.
const (
	ReasonBadSession        = 500
	ReasonConnectionClosed  = 428
	ReasonConnectionLost    = 408
	ReasonConnectionReplace = 440
	ReasonLoggedOut         = 401
	ReasonRestartRequired   = 515
	ReasonTimedOut          = 408
)

// Presence values sent to a chat while a reply is being prepared.
type Presence string

const (
	PresenceComposing Presence = "composing"
	PresencePaused    Presence = "paused"
)

// KeyStore is the tenant-scoped signal key storage handed to the library.
// Get omits ids that are not stored. In Set, a nil value deletes the key.
type KeyStore interface {
	Get(ctx context.Context, category string, ids []string) (map[string]any, error)
	Set(ctx context.Context, data map[string]map[string]any) error
}

// Credentials is the bundle a connection is opened with.
type Credentials struct {
	TenantID string
	// Identity is the serialized identity credential ("creds"). Opaque to this repo.
	Identity []byte
	// Fresh is true when no identity was stored and Identity was just initialized;
	// the library must pair (emit a QRCode) before it can connect.
	Fresh bool
	Keys  KeyStore
}

// Factory builds unconnected connections. NewConn must not perform network I/O.
type Factory interface {
	NewConn(tenantID string, creds *Credentials) (Conn, error)
}

// Conn is one live connection to the messaging network for one tenant.
// Event handlers are invoked on the library's own goroutines with pointer events
// (*QRCode, *Connected, *Closed, *CredsUpdated, *Message). Disconnect is idempotent.
type Conn interface {
	AddEventHandler(handler func(evt any))
	Connect(ctx context.Context) error
	Disconnect()
	// OwnID returns the JID of the paired account, or "" before pairing completes.
	OwnID() string
	SendText(ctx context.Context, to, text string, quoted *MessageKey) error
	SendPresence(ctx context.Context, to string, presence Presence) error
	Download(ctx context.Context, msg *Message) ([]byte, error)
}

// QRCode is emitted whenever a new pairing code is available.
type QRCode struct {
	Code string
}

// Connected is emitted once the connection is authenticated and open.
type Connected struct{}

// Closed is emitted when the connection ends. Reason is 0 when the library gave none.
type Closed struct {
	Reason int
	Err    error
}

// CredsUpdated is emitted when the identity credential changed and must be persisted.
type CredsUpdated struct {
	Identity []byte
}

// MessageKey identifies a message within a chat.
type MessageKey struct {
	ID        string
	RemoteJID string
	FromMe    bool
}

// Audio describes the audio attachment of a message.
type Audio struct {
	MimeType string
	Seconds  int
	PTT      bool
}

// Message is an inbound chat message.
type Message struct {
	Key       MessageKey
	PushName  string
	Text      string
	Audio     *Audio
	Timestamp time.Time
}

// HasContent reports whether the message carries text or audio.
func (m *Message) HasContent() bool {
	return m != nil && (m.Text != "" || m.Audio != nil)
}
