package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations; cmd/migrate applies them.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
