package jwt

import "github.com/golang-jwt/jwt/v5"

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	// KindAccess marks a short-lived access token.
	KindAccess TokenKind = "access"
	// KindRefresh marks a long-lived rotating refresh token.
	KindRefresh TokenKind = "refresh"
)

// Claims is the payload segment of a dashboard token.
type Claims struct {
	UserID string    `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	Role   string    `json:"role,omitempty"`
	Kind   TokenKind `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Identifier returns the subject, falling back to the user_id claim.
func (c *Claims) Identifier() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}
