package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rotisserie/eris"

	"valuation-service/internal/domain"
	"valuation-service/internal/questionnaire"
)

// BankLoader loads question bank JSONB from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, id string) (questionnaire.Bank, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM questionnaires WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return questionnaire.Bank{}, domain.ErrQuestionnaireNotFound
	}
	if err != nil {
		return questionnaire.Bank{}, eris.Wrap(err, "postgres: load questionnaire")
	}
	bank, err := questionnaire.ParseJSON(raw)
	if err != nil {
		return questionnaire.Bank{}, eris.Wrapf(err, "postgres: questionnaire %s", id)
	}
	return bank, nil
}

// SaveBank publishes a bank, replacing any stored version with the same id.
func (l *BankLoader) SaveBank(ctx context.Context, bank questionnaire.Bank) error {
	raw, err := json.Marshal(bank)
	if err != nil {
		return eris.Wrap(err, "postgres: encode questionnaire")
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO questionnaires (id, version, data, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, data = EXCLUDED.data, updated_at = now()`,
		bank.ID, bank.Version, string(raw))
	if err != nil {
		return eris.Wrap(err, "postgres: save questionnaire")
	}
	return nil
}
