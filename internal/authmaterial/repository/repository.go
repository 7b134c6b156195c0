package repository

import (
	"context"

	"github.com/Peixotim/sales-bot/internal/authmaterial/domain"
)

// Repository defines persistence for tenant auth material. Every call is scoped to one tenant.
type Repository interface {
	// Get returns the record, or nil if not found.
	Get(ctx context.Context, tenantID, keyName string) (*domain.Record, error)
	// GetMany returns the records that exist among keyNames; missing keys are omitted.
	GetMany(ctx context.Context, tenantID string, keyNames []string) ([]*domain.Record, error)
	// Put inserts or replaces the record.
	Put(ctx context.Context, rec *domain.Record) error
	Delete(ctx context.Context, tenantID, keyName string) error
	// DeleteAll removes every record for the tenant.
	DeleteAll(ctx context.Context, tenantID string) error
	// ListTenants returns the ids of tenants that have a stored identity credential.
	ListTenants(ctx context.Context) ([]string, error)
}
