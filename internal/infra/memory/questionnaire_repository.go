package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"valuation-service/internal/domain"
	"valuation-service/internal/questionnaire"
)

// BankLoader fetches a question bank from a backing store (e.g., Postgres JSONB).
type BankLoader interface {
	LoadBank(ctx context.Context, id string) (questionnaire.Bank, error)
}

// QuestionnaireRepository caches banks with TTL to avoid repeated DB hits.
type QuestionnaireRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      questionnaire.Bank
	expiresAt time.Time
}

func NewQuestionnaireRepository(loader BankLoader, ttl time.Duration) *QuestionnaireRepository {
	return &QuestionnaireRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *QuestionnaireRepository) GetBank(ctx context.Context, id string) (questionnaire.Bank, error) {
	if bank, ok := r.cached(id); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		if bank, ok := r.cached(id); ok {
			return bank, nil
		}
		bank, err := r.loader.LoadBank(ctx, id)
		if err != nil {
			return questionnaire.Bank{}, err
		}

		r.mu.Lock()
		r.cache[id] = cachedBank{
			bank:      bank,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return questionnaire.Bank{}, err
	}
	return result.(questionnaire.Bank), nil
}

func (r *QuestionnaireRepository) cached(id string) (questionnaire.Bank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[id]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return questionnaire.Bank{}, false
	}
	return entry.bank, true
}

func (r *QuestionnaireRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations across instances
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves banks from memory (the embedded default, tests, demos).
type StaticBankLoader struct {
	banks map[string]questionnaire.Bank
}

func NewStaticBankLoader(banks ...questionnaire.Bank) *StaticBankLoader {
	m := make(map[string]questionnaire.Bank, len(banks))
	for _, b := range banks {
		m[b.ID] = b
	}
	return &StaticBankLoader{banks: m}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, id string) (questionnaire.Bank, error) {
	if bank, ok := l.banks[id]; ok {
		return bank, nil
	}
	return questionnaire.Bank{}, domain.ErrQuestionnaireNotFound
}
