package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Peixotim/sales-bot/internal/contacts/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a blocklist repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all blocked contacts ordered by creation time, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.BlockedContact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT jid, name, created_at FROM blocked_contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.BlockedContact
	for rows.Next() {
		var c domain.BlockedContact
		if err := rows.Scan(&c.JID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Get returns the contact for jid, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, jid string) (*domain.BlockedContact, error) {
	var c domain.BlockedContact
	err := r.db.QueryRowContext(ctx,
		`SELECT jid, name, created_at FROM blocked_contacts WHERE jid = $1`, jid).
		Scan(&c.JID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts the contact; an existing jid is left untouched and reported as not created.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.BlockedContact) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_contacts (jid, name, created_at) VALUES ($1, $2, $3) ON CONFLICT (jid) DO NOTHING`,
		c.JID, c.Name, c.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the contact for jid and reports whether a row was deleted.
func (r *PostgresRepository) Delete(ctx context.Context, jid string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_contacts WHERE jid = $1`, jid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
