package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const minKeyBytes = 16

// RandomKey returns prefix followed by n random bytes in unpadded base64url.
func RandomKey(prefix string, n int) (string, error) {
	if n < minKeyBytes {
		return "", errors.New("key too short")
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return prefix + base64.RawURLEncoding.EncodeToString(raw), nil
}
