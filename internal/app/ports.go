package app

import (
	"context"
	"time"

	"valuation-service/internal/domain"
	"valuation-service/internal/questionnaire"
)

// SubmissionRepository persists assessments (in-memory, Postgres).
type SubmissionRepository interface {
	Upsert(ctx context.Context, sub domain.Submission) error
	Get(ctx context.Context, id string) (domain.Submission, error)
	// ListByEmail returns the submissions of one respondent, newest first.
	ListByEmail(ctx context.Context, email string) ([]domain.Submission, error)
}

// TokenStore keeps continuation tokens until they expire.
type TokenStore interface {
	Save(ctx context.Context, tok domain.ContinuationToken) error
	Get(ctx context.Context, token string) (domain.ContinuationToken, error)
	// MarkUsed flips the token to used exactly once; later calls return domain.ErrTokenUsed.
	MarkUsed(ctx context.Context, token string) error
}

// QuestionnaireRepository loads question banks (from cache/backing store).
type QuestionnaireRepository interface {
	GetBank(ctx context.Context, id string) (questionnaire.Bank, error)
}

// Mailer delivers respondent emails.
type Mailer interface {
	SendContinuation(ctx context.Context, to, company, link string, expiresAt time.Time) error
	SendS2DReport(ctx context.Context, to, company string, result domain.S2DResult) error
}

// CRMSync pushes completed assessments to the marketing CRM.
type CRMSync interface {
	SyncSubmission(ctx context.Context, sub domain.Submission) error
}

type noopMailer struct{}

func (noopMailer) SendContinuation(context.Context, string, string, string, time.Time) error {
	return nil
}

func (noopMailer) SendS2DReport(context.Context, string, string, domain.S2DResult) error {
	return nil
}
