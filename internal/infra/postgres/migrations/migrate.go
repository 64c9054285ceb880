package migrations

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// Apply runs every pending migration against dsn.
func Apply(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return eris.Wrap(err, "migrations: init")
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return eris.Wrap(err, "migrations: migrate")
	}
	if group.IsZero() {
		zap.L().Info("database schema up to date")
		return nil
	}
	zap.L().Info("migrations applied", zap.String("group", group.String()))
	return nil
}
