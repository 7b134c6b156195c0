package domain

import (
	"errors"
	"time"
)

// DefaultName is recorded when a contact is blocked without a display name.
const DefaultName = "Desconhecido"

var (
	// ErrInvalidNumber is returned when an identifier has no digits.
	ErrInvalidNumber = errors.New("contacts: invalid number")
	// ErrAlreadyBlocked is returned by Block when the contact is already on the blocklist.
	ErrAlreadyBlocked = errors.New("contacts: contact already blocked")
	// ErrNotBlocked is returned by Get and Unblock when the contact is not on the blocklist.
	ErrNotBlocked = errors.New("contacts: contact not blocked")
)

// BlockedContact is a muted sender. JID is normalized and unique.
type BlockedContact struct {
	JID       string
	Name      string
	CreatedAt time.Time
}
