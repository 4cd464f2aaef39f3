package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds all database migrations.
var Migrations = migrate.NewMigrations() //nolint:gochecknoglobals // -

// NewMigrator returns a migrator for Migrations that keeps its bookkeeping in
// nanika's own tables.
func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, Migrations,
		migrate.WithTableName("nanika_migrations"),
		migrate.WithLocksTableName("nanika_migration_locks"),
		migrate.WithMarkAppliedOnSuccess(true),
	)
}
