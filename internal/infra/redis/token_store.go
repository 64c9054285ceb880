package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"valuation-service/internal/domain"
)

// DefaultRetention keeps token keys around after expiry so late redemptions
// report domain.ErrTokenExpired instead of domain.ErrTokenNotFound.
const DefaultRetention = 24 * time.Hour

// markUsed increments the used counter only for tokens that exist.
var markUsed = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'used', 1)
`)

// TokenStore keeps continuation tokens in Redis, one hash per token:
//
//	HSET valuation:token:{token} assessment_id {id} email {email} expires_at {unix nanos} used 0
type TokenStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewTokenStore(client *redis.Client, retention time.Duration) *TokenStore {
	return &TokenStore{client: client, retention: retention}
}

func (s *TokenStore) Save(ctx context.Context, tok domain.ContinuationToken) error {
	key := tokenKey(tok.Token)
	used := 0
	if tok.Used {
		used = 1
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"assessment_id", tok.AssessmentID,
		"email", tok.Email,
		"expires_at", strconv.FormatInt(tok.ExpiresAt.UnixNano(), 10),
		"used", used,
	)
	pipe.ExpireAt(ctx, key, tok.ExpiresAt.Add(s.retention))
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "redis: save token")
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, token string) (domain.ContinuationToken, error) {
	fields, err := s.client.HGetAll(ctx, tokenKey(token)).Result()
	if err != nil {
		return domain.ContinuationToken{}, eris.Wrap(err, "redis: get token")
	}
	if len(fields) == 0 {
		return domain.ContinuationToken{}, domain.ErrTokenNotFound
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return domain.ContinuationToken{}, eris.Wrapf(err, "redis: token %s has bad expiry", token)
	}
	used, _ := strconv.Atoi(fields["used"])
	return domain.ContinuationToken{
		Token:        token,
		AssessmentID: fields["assessment_id"],
		Email:        fields["email"],
		ExpiresAt:    time.Unix(0, expires).UTC(),
		Used:         used > 0,
	}, nil
}

// MarkUsed is atomic across instances: only the first caller sees a count of one.
func (s *TokenStore) MarkUsed(ctx context.Context, token string) error {
	n, err := markUsed.Run(ctx, s.client, []string{tokenKey(token)}).Int()
	if err != nil {
		return eris.Wrap(err, "redis: mark token used")
	}
	switch {
	case n < 0:
		return domain.ErrTokenNotFound
	case n > 1:
		return domain.ErrTokenUsed
	}
	return nil
}

func tokenKey(token string) string {
	return "valuation:token:" + token
}
