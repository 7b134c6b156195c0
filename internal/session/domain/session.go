package domain

// Status is the connection status of a tenant session.
type Status string

const (
	StatusConnecting      Status = "CONNECTING"
	StatusAwaitingPairing Status = "QR_CODE_READY"
	StatusConnected       Status = "CONNECTED"
	StatusDisconnected    Status = "DISCONNECTED"
)

// String returns the wire value of the status.
func (s Status) String() string { return string(s) }

// Live reports whether a connection handle may exist in this status.
func (s Status) Live() bool {
	return s == StatusConnecting || s == StatusAwaitingPairing || s == StatusConnected
}

// CanTransition reports whether moving from s to next is allowed.
// The empty status is the state of a tenant that has never been seen.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case "", StatusDisconnected:
		return next == StatusConnecting
	case StatusConnecting:
		return next == StatusAwaitingPairing || next == StatusConnected || next == StatusDisconnected
	case StatusAwaitingPairing:
		return next == StatusAwaitingPairing || next == StatusConnected || next == StatusDisconnected
	case StatusConnected:
		return next == StatusDisconnected
	}
	return false
}

// Handle is the registry's view of a live connection.
type Handle interface {
	OwnID() string
	Close()
}

// TenantSession is the in-memory state of one tenant's connection.
type TenantSession struct {
	TenantID    string
	Status      Status
	PairingCode string // empty when no code is outstanding
	Handle      Handle // nil when no connection exists
	Generation  uint64
}
