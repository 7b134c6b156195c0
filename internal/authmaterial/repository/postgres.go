package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Peixotim/sales-bot/internal/authmaterial/domain"
)

// CredsKey is the key name of the identity credential.
const CredsKey = "creds"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an auth material repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the record for tenantID and keyName, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, tenantID, keyName string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT tenant_id, key_name, value, updated_at FROM auth_material WHERE tenant_id = $1 AND key_name = $2`,
		tenantID, keyName)
	var rec domain.Record
	if err := row.Scan(&rec.TenantID, &rec.KeyName, &rec.Value, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetMany returns the stored records among keyNames in one round trip.
func (r *PostgresRepository) GetMany(ctx context.Context, tenantID string, keyNames []string) ([]*domain.Record, error) {
	if len(keyNames) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT tenant_id, key_name, value, updated_at FROM auth_material WHERE tenant_id = $1 AND key_name = ANY($2)`,
		tenantID, keyNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.TenantID, &rec.KeyName, &rec.Value, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Put upserts the record. UpdatedAt defaults to now when zero.
func (r *PostgresRepository) Put(ctx context.Context, rec *domain.Record) error {
	at := rec.UpdatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_material (tenant_id, key_name, value, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (tenant_id, key_name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		rec.TenantID, rec.KeyName, rec.Value, at)
	return err
}

// Delete removes one record. Deleting a missing key is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, tenantID, keyName string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_material WHERE tenant_id = $1 AND key_name = $2`, tenantID, keyName)
	return err
}

// DeleteAll removes every record of the tenant.
func (r *PostgresRepository) DeleteAll(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_material WHERE tenant_id = $1`, tenantID)
	return err
}

// ListTenants returns tenants that have a stored identity credential, ordered by id.
func (r *PostgresRepository) ListTenants(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tenant_id FROM auth_material WHERE key_name = $1 ORDER BY tenant_id`, CredsKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
