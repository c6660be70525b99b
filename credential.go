package authgate

import (
	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/policy"
)

// CredentialKind names the active credential variant.
type CredentialKind uint8

const (
	CredentialNone CredentialKind = iota
	CredentialToken
	CredentialAPIKey
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialToken:
		return "token"
	case CredentialAPIKey:
		return "api_key"
	default:
		return "none"
	}
}

// Credential is the active credential of a session: a [TokenCredential] or
// an [APIKeyCredential]. A nil Credential means none is held.
type Credential interface {
	Kind() CredentialKind
}

// TokenCredential is a short-lived access token with its rotating refresh
// token.
type TokenCredential struct {
	AccessToken  string
	RefreshToken string
}

func (TokenCredential) Kind() CredentialKind { return CredentialToken }

// APIKeyCredential is a static, non-expiring key.
type APIKeyCredential struct {
	Key string
}

func (APIKeyCredential) Kind() CredentialKind { return CredentialAPIKey }

// KindOf returns the kind of c, CredentialNone for nil.
func KindOf(c Credential) CredentialKind {
	if c == nil {
		return CredentialNone
	}
	return c.Kind()
}

// Identity is the unverified identity carried by an access token payload.
// It is for display and coarse routing only; the backend re-checks the role
// on every privileged operation.
type Identity struct {
	ID    string
	Email string
	Role  policy.Role
}

// IdentityFromToken decodes token WITHOUT verifying its signature.
func IdentityFromToken(token string) (Identity, error) {
	claims, err := jwt.DecodeUnverified(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:    claims.Identifier(),
		Email: claims.Email,
		Role:  policy.Role(claims.Role),
	}, nil
}
