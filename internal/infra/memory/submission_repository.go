package memory

import (
	"context"
	"sort"
	"sync"

	"valuation-service/internal/domain"
)

// SubmissionRepository is an in-memory implementation of app.SubmissionRepository.
type SubmissionRepository struct {
	mu   sync.RWMutex
	subs map[string]domain.Submission
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{subs: make(map[string]domain.Submission)}
}

func (r *SubmissionRepository) Upsert(_ context.Context, sub domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = copySubmission(sub)
	return nil
}

func (r *SubmissionRepository) Get(_ context.Context, id string) (domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return copySubmission(sub), nil
}

func (r *SubmissionRepository) ListByEmail(_ context.Context, email string) ([]domain.Submission, error) {
	r.mu.RLock()
	out := make([]domain.Submission, 0)
	for _, sub := range r.subs {
		if sub.Email == email {
			out = append(out, copySubmission(sub))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// copySubmission detaches the answer maps so callers cannot mutate stored rows.
func copySubmission(sub domain.Submission) domain.Submission {
	if sub.Answers != nil {
		sub.Answers = sub.Answers.Clone()
	}
	if sub.S2DAnswers != nil {
		sub.S2DAnswers = sub.S2DAnswers.Clone()
	}
	return sub
}
