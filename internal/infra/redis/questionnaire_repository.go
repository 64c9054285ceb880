package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"valuation-service/internal/infra/memory"
	"valuation-service/internal/questionnaire"
)

// QuestionnaireRepository caches question banks in Redis as one JSON document
// per bank and falls back to a loader on cache miss:
//
//	SET valuation:questionnaire:{id} {bank json} EX {ttl}
type QuestionnaireRepository struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionnaireRepository(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *QuestionnaireRepository {
	return &QuestionnaireRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionnaireRepository) GetBank(ctx context.Context, id string) (questionnaire.Bank, error) {
	if bank, ok := r.cached(ctx, id); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another instance filled it.
		if bank, ok := r.cached(ctx, id); ok {
			return bank, nil
		}
		bank, err := r.loader.LoadBank(ctx, id)
		if err != nil {
			return questionnaire.Bank{}, err
		}

		raw, err := json.Marshal(bank)
		if err != nil {
			return questionnaire.Bank{}, eris.Wrap(err, "redis: encode questionnaire")
		}
		if err := r.client.Set(ctx, bankKey(id), raw, r.ttlWithJitter()).Err(); err != nil {
			zap.L().Warn("questionnaire cache write failed", zap.String("questionnaire", id), zap.Error(err))
		}
		return bank, nil
	})
	if err != nil {
		return questionnaire.Bank{}, err
	}
	return result.(questionnaire.Bank), nil
}

// cached reads the cached bank. Unreadable entries count as a miss.
func (r *QuestionnaireRepository) cached(ctx context.Context, id string) (questionnaire.Bank, bool) {
	raw, err := r.client.Get(ctx, bankKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("questionnaire cache read failed", zap.String("questionnaire", id), zap.Error(err))
		}
		return questionnaire.Bank{}, false
	}
	bank, err := questionnaire.ParseJSON(raw)
	if err != nil {
		zap.L().Warn("questionnaire cache entry unreadable", zap.String("questionnaire", id), zap.Error(err))
		return questionnaire.Bank{}, false
	}
	return bank, true
}

func bankKey(id string) string {
	return "valuation:questionnaire:" + id
}

func (r *QuestionnaireRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
