package memory

import (
	"context"
	"sync"
	"time"

	"valuation-service/internal/domain"
)

// DefaultTokenRetention keeps expired tokens around long enough to report
// them as expired rather than unknown.
const DefaultTokenRetention = 24 * time.Hour

const tokenSweepInterval = time.Minute

// TokenStore is an in-memory implementation of app.TokenStore. Tokens past
// their expiry plus the retention window are dropped.
type TokenStore struct {
	retention time.Duration
	clock     func() time.Time

	mu        sync.Mutex
	tokens    map[string]domain.ContinuationToken
	lastSweep time.Time
}

// TokenStoreOption customises a TokenStore.
type TokenStoreOption func(*TokenStore)

// WithTokenRetention overrides DefaultTokenRetention.
func WithTokenRetention(d time.Duration) TokenStoreOption {
	return func(s *TokenStore) { s.retention = d }
}

// WithTokenClock replaces time.Now for eviction decisions.
func WithTokenClock(now func() time.Time) TokenStoreOption {
	return func(s *TokenStore) { s.clock = now }
}

func NewTokenStore(opts ...TokenStoreOption) *TokenStore {
	s := &TokenStore{
		retention: DefaultTokenRetention,
		clock:     time.Now,
		tokens:    make(map[string]domain.ContinuationToken),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenStore) Save(_ context.Context, tok domain.ContinuationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	if now.Sub(s.lastSweep) >= tokenSweepInterval {
		s.sweepLocked(now)
		s.lastSweep = now
	}
	s.tokens[tok.Token] = tok
	return nil
}

func (s *TokenStore) Get(_ context.Context, token string) (domain.ContinuationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.liveLocked(token)
	if !ok {
		return domain.ContinuationToken{}, domain.ErrTokenNotFound
	}
	return tok, nil
}

func (s *TokenStore) MarkUsed(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.liveLocked(token)
	if !ok {
		return domain.ErrTokenNotFound
	}
	if tok.Used {
		return domain.ErrTokenUsed
	}
	tok.Used = true
	s.tokens[token] = tok
	return nil
}

// Len reports how many tokens are held, including expired ones not yet evicted.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *TokenStore) liveLocked(token string) (domain.ContinuationToken, bool) {
	tok, ok := s.tokens[token]
	if !ok {
		return domain.ContinuationToken{}, false
	}
	if s.evictable(tok, s.clock()) {
		delete(s.tokens, token)
		return domain.ContinuationToken{}, false
	}
	return tok, true
}

func (s *TokenStore) sweepLocked(now time.Time) {
	for k, tok := range s.tokens {
		if s.evictable(tok, now) {
			delete(s.tokens, k)
		}
	}
}

func (s *TokenStore) evictable(tok domain.ContinuationToken, now time.Time) bool {
	return !now.Before(tok.ExpiresAt.Add(s.retention))
}
