package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rotisserie/eris"

	"valuation-service/internal/domain"
)

const submissionColumns = `id, email, company_name, answers, valuation, s2d_answers, s2d, completed, created_at, updated_at, completed_at, access_key_hash`

// SubmissionRepository stores assessments with answers and results as JSONB.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func (r *SubmissionRepository) Upsert(ctx context.Context, sub domain.Submission) error {
	answers, err := jsonParam(sub.Answers, true)
	if err != nil {
		return err
	}
	valuation, err := jsonParam(sub.Valuation, sub.Valuation != nil)
	if err != nil {
		return err
	}
	s2dAnswers, err := jsonParam(sub.S2DAnswers, sub.S2DAnswers != nil)
	if err != nil {
		return err
	}
	s2d, err := jsonParam(sub.S2D, sub.S2D != nil)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7::jsonb, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			company_name = EXCLUDED.company_name,
			answers = EXCLUDED.answers,
			valuation = EXCLUDED.valuation,
			s2d_answers = EXCLUDED.s2d_answers,
			s2d = EXCLUDED.s2d,
			completed = EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at,
			access_key_hash = EXCLUDED.access_key_hash`,
		sub.ID, sub.Email, sub.CompanyName, answers, valuation, s2dAnswers, s2d,
		sub.Completed, sub.CreatedAt, sub.UpdatedAt, sub.CompletedAt, sub.AccessKeyHash,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert submission")
	}
	return nil
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (domain.Submission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, eris.Wrap(err, "postgres: get submission")
	}
	return sub, nil
}

func (r *SubmissionRepository) ListByEmail(ctx context.Context, email string) ([]domain.Submission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE email=$1 ORDER BY created_at DESC, id`, email)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions")
	}
	defer rows.Close()

	out := make([]domain.Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission")
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions")
	}
	return out, nil
}

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var sub domain.Submission
	var answers, valuation, s2dAnswers, s2dResult []byte
	var completedAt *time.Time
	err := row.Scan(&sub.ID, &sub.Email, &sub.CompanyName, &answers, &valuation, &s2dAnswers, &s2dResult,
		&sub.Completed, &sub.CreatedAt, &sub.UpdatedAt, &completedAt, &sub.AccessKeyHash)
	if err != nil {
		return domain.Submission{}, err
	}
	sub.CompletedAt = completedAt

	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return domain.Submission{}, eris.Wrap(err, "decode answers")
	}
	if valuation != nil {
		sub.Valuation = &domain.ValuationResult{}
		if err := json.Unmarshal(valuation, sub.Valuation); err != nil {
			return domain.Submission{}, eris.Wrap(err, "decode valuation")
		}
	}
	if s2dAnswers != nil {
		if err := json.Unmarshal(s2dAnswers, &sub.S2DAnswers); err != nil {
			return domain.Submission{}, eris.Wrap(err, "decode s2d answers")
		}
	}
	if s2dResult != nil {
		sub.S2D = &domain.S2DResult{}
		if err := json.Unmarshal(s2dResult, sub.S2D); err != nil {
			return domain.Submission{}, eris.Wrap(err, "decode s2d result")
		}
	}
	return sub, nil
}

// jsonParam encodes v as JSON text for a jsonb parameter, or NULL when !present.
func jsonParam(v any, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: encode jsonb")
	}
	return string(raw), nil
}
