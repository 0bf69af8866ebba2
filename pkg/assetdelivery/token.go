package assetdelivery

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenEntropyBytes is the number of random bytes behind each token value.
// 32 bytes gives 256 bits of entropy.
const tokenEntropyBytes = 32

// generateTokenValue returns an unguessable token string from the system's
// cryptographically secure random source.
func generateTokenValue() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
