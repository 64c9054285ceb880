package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-service/internal/domain"
	"valuation-service/internal/questionnaire"
)

func TestQuestionnaireRepositoryCaches(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(questionnaire.Default())}
	repo := NewQuestionnaireRepository(loader, time.Minute)

	bank, err := repo.GetBank(context.Background(), questionnaire.DefaultID)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.DefaultID, bank.ID)
	assert.EqualValues(t, 1, loader.calls.Load())

	_, err = repo.GetBank(context.Background(), questionnaire.DefaultID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, loader.calls.Load(), "expected cache hit")
}

func TestQuestionnaireRepositoryReloadsAfterTTL(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(questionnaire.Default())}
	repo := NewQuestionnaireRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, err := repo.GetBank(context.Background(), questionnaire.DefaultID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = repo.GetBank(context.Background(), questionnaire.DefaultID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestQuestionnaireRepositoryCollapsesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	loader := &countingLoader{BankLoader: NewStaticBankLoader(questionnaire.Default()), gate: release}
	repo := NewQuestionnaireRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.GetBank(context.Background(), questionnaire.DefaultID)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, loader.calls.Load())
}

func TestQuestionnaireRepositoryUnknownBank(t *testing.T) {
	repo := NewQuestionnaireRepository(NewStaticBankLoader(), time.Minute)

	_, err := repo.GetBank(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrQuestionnaireNotFound)
}

type countingLoader struct {
	BankLoader
	calls atomic.Int32
	gate  chan struct{}
}

func (l *countingLoader) LoadBank(ctx context.Context, id string) (questionnaire.Bank, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.BankLoader.LoadBank(ctx, id)
}
