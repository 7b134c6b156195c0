package repository

import (
	"context"

	"github.com/Peixotim/sales-bot/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
}
