package app

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/rotisserie/eris"
)

const tokenBytes = 32

// newToken returns an unguessable url-safe continuation token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", eris.Wrap(err, "app: generate token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
