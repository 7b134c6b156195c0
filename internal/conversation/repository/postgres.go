package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Peixotim/sales-bot/internal/conversation/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a conversation repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the chat for chatID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, chatID string) (*domain.Chat, error) {
	var (
		c     domain.Chat
		turns []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT chat_id, tenant_id, contact, turns, updated_at FROM chat_history WHERE chat_id = $1`, chatID).
		Scan(&c.ChatID, &c.TenantID, &c.Contact, &turns, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(turns, &c.Turns); err != nil {
		return nil, fmt.Errorf("decode turns of %s: %w", chatID, err)
	}
	return &c, nil
}

// Save upserts the chat. UpdatedAt defaults to now when zero.
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Chat) error {
	turns := c.Turns
	if turns == nil {
		turns = []domain.Turn{}
	}
	b, err := json.Marshal(turns)
	if err != nil {
		return err
	}
	at := c.UpdatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chat_history (chat_id, tenant_id, contact, turns, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chat_id) DO UPDATE SET turns = EXCLUDED.turns, updated_at = EXCLUDED.updated_at`,
		c.ChatID, c.TenantID, c.Contact, b, at)
	return err
}

// Delete removes one chat.
func (r *PostgresRepository) Delete(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_history WHERE chat_id = $1`, chatID)
	return err
}

// ListByTenant returns the tenant's chats ordered by last update, newest first.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chat_id, tenant_id, contact, updated_at FROM chat_history WHERE tenant_id = $1 ORDER BY updated_at DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(&c.ChatID, &c.TenantID, &c.Contact, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
