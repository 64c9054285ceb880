package cli

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"valuation-service/internal/config"
	"valuation-service/internal/domain"
	"valuation-service/internal/infra/postgres"
	pgmigrations "valuation-service/internal/infra/postgres/migrations"
	"valuation-service/internal/questionnaire"
)

// NewMigrateCmd applies database migrations and seeds the default question bank.
func NewMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *cfg)
		},
	}
}

func runMigrations(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return eris.New("postgres url not configured")
	}
	if err := pgmigrations.Apply(ctx, cfg.Postgres.URL); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return eris.Wrap(err, "connect postgres")
	}
	defer pool.Close()
	return seedBank(ctx, postgres.NewBankLoader(pool))
}

// seedBank stores the embedded bank unless one with the same id already exists,
// so edits made in the database survive restarts.
func seedBank(ctx context.Context, loader *postgres.BankLoader) error {
	bank := questionnaire.Default()
	_, err := loader.LoadBank(ctx, bank.ID)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, domain.ErrQuestionnaireNotFound):
		return err
	}
	if err := loader.SaveBank(ctx, bank); err != nil {
		return err
	}
	zap.L().Info("seeded question bank", zap.String("id", bank.ID), zap.Int("version", bank.Version))
	return nil
}
