package repository

import (
	"context"

	"github.com/Peixotim/sales-bot/internal/conversation/domain"
)

// Repository defines persistence for conversation history.
type Repository interface {
	// Get returns the chat, or nil if not found.
	Get(ctx context.Context, chatID string) (*domain.Chat, error)
	// Save inserts or replaces the chat.
	Save(ctx context.Context, c *domain.Chat) error
	// Delete removes the chat. Deleting a missing chat is not an error.
	Delete(ctx context.Context, chatID string) error
	// ListByTenant returns the tenant's chats without turns, most recently updated first.
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Chat, error)
}
