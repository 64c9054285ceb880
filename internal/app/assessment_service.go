package app

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"valuation-service/internal/domain"
	"valuation-service/internal/metrics"
	"valuation-service/internal/questionnaire"
	"valuation-service/internal/s2d"
	"valuation-service/internal/valuation"
)

// Config tunes the assessment use cases.
type Config struct {
	QuestionnaireID string
	// TokenTTL is how long a continuation link stays redeemable.
	TokenTTL time.Duration
	// ContinuationURL is the page that receives ?token=.
	ContinuationURL string
	// ContinuationsPerMinute caps link requests per email address; 0 disables the cap.
	ContinuationsPerMinute float64
}

// Option customises an AssessmentService.
type Option func(*AssessmentService)

func WithMailer(m Mailer) Option { return func(s *AssessmentService) { s.mailer = m } }

func WithCRM(c CRMSync) Option { return func(s *AssessmentService) { s.crm = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *AssessmentService) { s.metrics = m } }

// WithCRMTimeout bounds each background CRM sync. The default is 30s.
func WithCRMTimeout(d time.Duration) Option { return func(s *AssessmentService) { s.crmTimeout = d } }

// WithClock is used in tests for deterministic timestamps and expiry.
func WithClock(now func() time.Time) Option { return func(s *AssessmentService) { s.now = now } }

// AssessmentService contains the core valuation assessment use cases.
type AssessmentService struct {
	subs    SubmissionRepository
	tokens  TokenStore
	banks   QuestionnaireRepository
	cfg     Config
	mailer  Mailer
	crm     CRMSync
	metrics *metrics.Metrics
	limiter *emailLimiter
	now     func() time.Time
	newID   func() string

	crmTimeout time.Duration
	background sync.WaitGroup
}

func NewAssessmentService(subs SubmissionRepository, tokens TokenStore, banks QuestionnaireRepository, cfg Config, opts ...Option) *AssessmentService {
	if cfg.QuestionnaireID == "" {
		cfg.QuestionnaireID = questionnaire.DefaultID
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 72 * time.Hour
	}
	s := &AssessmentService{
		subs:    subs,
		tokens:  tokens,
		banks:   banks,
		cfg:     cfg,
		mailer:  noopMailer{},
		limiter: newEmailLimiter(cfg.ContinuationsPerMinute),
		now:     time.Now,
		newID:   uuid.NewString,

		crmTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Questionnaire returns the active question bank.
func (s *AssessmentService) Questionnaire(ctx context.Context) (questionnaire.Bank, error) {
	return s.banks.GetBank(ctx, s.cfg.QuestionnaireID)
}

// Start opens a new, incomplete assessment for email. The returned access key
// is required for every later read or edit.
func (s *AssessmentService) Start(ctx context.Context, email, company string) (Session, error) {
	email = normalizeEmail(email)
	if !questionnaire.ValidEmail(email) {
		return Session{}, domain.ErrInvalidEmail
	}
	company = strings.TrimSpace(company)

	now := s.now().UTC()
	answers := domain.Answers{questionnaire.KeyEmail: email}
	if company != "" {
		answers[questionnaire.KeyCompanyName] = company
	}
	sub := domain.Submission{
		ID:          s.newID(),
		Email:       email,
		CompanyName: company,
		Answers:     answers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	key, err := issueAccessKey(&sub)
	if err != nil {
		return Session{}, err
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return Session{}, err
	}
	s.metrics.AssessmentStarted()
	zap.L().Info("assessment started", zap.String("id", sub.ID))
	return Session{Submission: sub, AccessKey: key}, nil
}

// SaveProgress replaces the stored answers of an open assessment wholesale.
func (s *AssessmentService) SaveProgress(ctx context.Context, id string, answers domain.Answers) (domain.Submission, error) {
	sub, err := s.open(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	s.applyAnswers(&sub, answers)
	sub.UpdatedAt = s.now().UTC()
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return domain.Submission{}, err
	}
	return sub, nil
}

// Preview scores answers without persisting them. An empty section previews
// only the overall percentage.
func (s *AssessmentService) Preview(ctx context.Context, answers domain.Answers, section string) (valuation.Preview, error) {
	bank, err := s.Questionnaire(ctx)
	if err != nil {
		return valuation.Preview{}, err
	}
	if section != "" && !bank.HasSection(section) {
		return valuation.Preview{}, &domain.ValidationError{Invalid: []string{"section"}}
	}
	s.metrics.Preview(section)
	return valuation.SectionPreview(bank.Questions, answers, section), nil
}

// Submit validates the final answers, computes the valuation and completes the
// assessment. A nil answers map submits the stored progress. Validation
// failures are returned as *domain.ValidationError.
func (s *AssessmentService) Submit(ctx context.Context, id string, answers domain.Answers) (domain.Submission, error) {
	sub, err := s.open(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	if answers != nil {
		s.applyAnswers(&sub, answers)
	}
	bank, err := s.Questionnaire(ctx)
	if err != nil {
		return domain.Submission{}, err
	}
	if err := bank.Validate(sub.Answers); err != nil {
		return domain.Submission{}, err
	}

	result := valuation.Evaluate(bank.Questions, bank.Industries, sub.Answers)
	now := s.now().UTC()
	sub.Valuation = &result
	sub.Completed = true
	sub.CompletedAt = &now
	sub.UpdatedAt = now
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return domain.Submission{}, err
	}
	s.metrics.AssessmentCompleted(result.Stage, result.EstimatedValuation)
	zap.L().Info("assessment completed",
		zap.String("id", sub.ID),
		zap.String("stage", result.Stage),
		zap.Int64("estimated_valuation", result.EstimatedValuation),
	)

	s.syncCRM(ctx, sub)
	return sub, nil
}

func (s *AssessmentService) Get(ctx context.Context, id string) (domain.Submission, error) {
	return s.subs.Get(ctx, id)
}

// RequestContinuation issues a single-use link to resume an open assessment
// and emails it. When delivery fails the token stays valid and is returned
// together with the error.
func (s *AssessmentService) RequestContinuation(ctx context.Context, id string) (domain.ContinuationToken, error) {
	sub, err := s.open(ctx, id)
	if err != nil {
		return domain.ContinuationToken{}, err
	}
	now := s.now().UTC()
	if !s.limiter.allow(sub.Email, now) {
		s.metrics.Continuation(metrics.OutcomeDenied)
		return domain.ContinuationToken{}, domain.ErrRateLimited
	}
	return s.sendContinuation(ctx, sub, now)
}

// RequestContinuationByEmail emails a link to the newest open assessment of
// email. Having no open assessment is not an error and returns an empty token,
// so callers cannot tell whether the address is known.
func (s *AssessmentService) RequestContinuationByEmail(ctx context.Context, email string) (domain.ContinuationToken, error) {
	email = normalizeEmail(email)
	if !questionnaire.ValidEmail(email) {
		return domain.ContinuationToken{}, domain.ErrInvalidEmail
	}
	now := s.now().UTC()
	if !s.limiter.allow(email, now) {
		s.metrics.Continuation(metrics.OutcomeDenied)
		return domain.ContinuationToken{}, domain.ErrRateLimited
	}
	subs, err := s.subs.ListByEmail(ctx, email)
	if err != nil {
		return domain.ContinuationToken{}, err
	}
	for _, sub := range subs {
		if !sub.Completed {
			return s.sendContinuation(ctx, sub, now)
		}
	}
	zap.L().Debug("no open assessment for continuation request")
	return domain.ContinuationToken{}, nil
}

func (s *AssessmentService) sendContinuation(ctx context.Context, sub domain.Submission, now time.Time) (domain.ContinuationToken, error) {
	raw, err := newToken()
	if err != nil {
		return domain.ContinuationToken{}, err
	}
	tok := domain.ContinuationToken{
		Token:        raw,
		AssessmentID: sub.ID,
		Email:        sub.Email,
		ExpiresAt:    now.Add(s.cfg.TokenTTL),
	}
	if err := s.tokens.Save(ctx, tok); err != nil {
		return domain.ContinuationToken{}, err
	}

	if err := s.mailer.SendContinuation(ctx, sub.Email, sub.CompanyName, s.continuationLink(tok.Token), tok.ExpiresAt); err != nil {
		s.metrics.Continuation(metrics.OutcomeError)
		zap.L().Warn("continuation email failed", zap.String("id", sub.ID), zap.Error(err))
		return tok, err
	}
	s.metrics.Continuation(metrics.OutcomeOK)
	return tok, nil
}

// Resume redeems a continuation token and returns the assessment it points to
// with a fresh access key. Earlier keys stop working.
func (s *AssessmentService) Resume(ctx context.Context, token string) (Session, error) {
	sess, err := s.resume(ctx, token)
	if err != nil {
		s.metrics.Resume(resumeOutcome(err))
		return Session{}, err
	}
	s.metrics.Resume(metrics.OutcomeOK)
	return sess, nil
}

func (s *AssessmentService) resume(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, domain.ErrTokenNotFound
	}
	tok, err := s.tokens.Get(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if err := tok.Verify(s.now()); err != nil {
		return Session{}, err
	}
	if err := s.tokens.MarkUsed(ctx, token); err != nil {
		return Session{}, err
	}
	sub, err := s.subs.Get(ctx, tok.AssessmentID)
	if err != nil {
		return Session{}, err
	}
	key, err := issueAccessKey(&sub)
	if err != nil {
		return Session{}, err
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return Session{}, err
	}
	return Session{Submission: sub, AccessKey: key}, nil
}

// SubmitS2D scores the sale-to-delivery sub-assessment and stores it on the
// assessment. The emailed report is best-effort.
func (s *AssessmentService) SubmitS2D(ctx context.Context, id string, answers domain.Answers) (domain.Submission, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	result := s2d.Score(answers)
	sub.S2DAnswers = answers.Clone()
	sub.S2D = &result
	sub.UpdatedAt = s.now().UTC()
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return domain.Submission{}, err
	}
	s.metrics.S2DCompleted()

	if err := s.mailer.SendS2DReport(ctx, sub.Email, sub.CompanyName, result); err != nil {
		zap.L().Warn("s2d report email failed", zap.String("id", sub.ID), zap.Error(err))
	}
	return sub, nil
}

// open loads an assessment that can still be edited.
func (s *AssessmentService) open(ctx context.Context, id string) (domain.Submission, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	if sub.Completed {
		return domain.Submission{}, domain.ErrAlreadyCompleted
	}
	return sub, nil
}

// applyAnswers stores a copy of answers and refreshes the contact fields. The
// start email is kept when the answers carry no valid replacement.
func (s *AssessmentService) applyAnswers(sub *domain.Submission, answers domain.Answers) {
	sub.Answers = answers.Clone()
	if email, ok := sub.Answers.Text(questionnaire.KeyEmail); ok {
		if email = normalizeEmail(email); questionnaire.ValidEmail(email) {
			sub.Email = email
		}
	}
	if company, ok := sub.Answers.Text(questionnaire.KeyCompanyName); ok {
		sub.CompanyName = company
	}
}

// syncCRM pushes sub to the CRM in the background, detached from the
// request's cancellation and bounded by crmTimeout.
func (s *AssessmentService) syncCRM(ctx context.Context, sub domain.Submission) {
	if s.crm == nil {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.crmTimeout)
		defer cancel()
		if err := s.crm.SyncSubmission(ctx, sub); err != nil {
			s.metrics.CRMSync(metrics.OutcomeError)
			zap.L().Warn("crm sync failed", zap.String("id", sub.ID), zap.Error(err))
			return
		}
		s.metrics.CRMSync(metrics.OutcomeOK)
	}()
}

// Close waits for background CRM syncs until ctx is done.
func (s *AssessmentService) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AssessmentService) continuationLink(token string) string {
	base := s.cfg.ContinuationURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

func resumeOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenUsed):
		return "used"
	case errors.Is(err, domain.ErrTokenNotFound):
		return "not_found"
	default:
		return metrics.OutcomeError
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
