package app

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"valuation-service/internal/domain"
)

// Session is an assessment together with the access key that authorises
// reading and editing it. The key is only ever returned here; the store keeps
// its hash.
type Session struct {
	domain.Submission
	AccessKey string `json:"accessKey"`
}

// Authorize checks key against the assessment's stored key hash and returns
// the assessment on success.
func (s *AssessmentService) Authorize(ctx context.Context, id, key string) (domain.Submission, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	if key == "" || sub.AccessKeyHash == "" {
		return domain.Submission{}, domain.ErrForbidden
	}
	if subtle.ConstantTimeCompare([]byte(hashAccessKey(key)), []byte(sub.AccessKeyHash)) != 1 {
		return domain.Submission{}, domain.ErrForbidden
	}
	return sub, nil
}

// issueAccessKey stores the hash of a fresh key on sub, replacing any previous
// key, and returns the raw key.
func issueAccessKey(sub *domain.Submission) (string, error) {
	key, err := newToken()
	if err != nil {
		return "", err
	}
	sub.AccessKeyHash = hashAccessKey(key)
	return key, nil
}

func hashAccessKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
