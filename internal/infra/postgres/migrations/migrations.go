package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change; each file in this package registers one.
var Migrations = migrate.NewMigrations()
