package repository

import (
	"context"

	"github.com/Peixotim/sales-bot/internal/contacts/domain"
)

// Repository defines persistence for the blocklist. JIDs are already normalized.
type Repository interface {
	// List returns every blocked contact, newest first.
	List(ctx context.Context) ([]*domain.BlockedContact, error)
	// Get returns the contact, or nil if not blocked.
	Get(ctx context.Context, jid string) (*domain.BlockedContact, error)
	// Create inserts c and reports false when the JID was already present.
	Create(ctx context.Context, c *domain.BlockedContact) (bool, error)
	// Delete removes the contact and reports whether it existed.
	Delete(ctx context.Context, jid string) (bool, error)
}
