// Package migrations holds the Postgres schema, applied with bun/migrate.
package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the ordered schema history. Files register themselves from
// init using their numeric filename prefix as the version.
var Migrations = migrate.NewMigrations()
