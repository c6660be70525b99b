package jwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token is not three non-empty dot-separated
// segments or its payload cannot be decoded.
var ErrMalformed = errors.New("malformed token")

var unverifiedParser = jwt.NewParser()

// WellFormed reports whether token has the header.payload.signature shape with
// every segment non-empty. It is a shape check only.
func WellFormed(token string) bool {
	if token == "" {
		return false
	}
	first := strings.IndexByte(token, '.')
	if first <= 0 {
		return false
	}
	rest := token[first+1:]
	second := strings.IndexByte(rest, '.')
	if second <= 0 {
		return false
	}
	sig := rest[second+1:]
	return sig != "" && !strings.Contains(sig, ".")
}

// DecodeUnverified decodes the payload of token WITHOUT verifying its
// signature, expiry, issuer or audience. Use it only for display and coarse
// edge routing; it must never substitute for server-side authorization.
func DecodeUnverified(token string) (*Claims, error) {
	if !WellFormed(token) {
		return nil, ErrMalformed
	}
	claims := &Claims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return claims, nil
}
