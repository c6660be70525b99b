package flows

import "context"

// AuthScheme names the credential attached to an outbound request.
type AuthScheme uint8

const (
	AuthNone AuthScheme = iota
	AuthBearer
	AuthAPIKey
)

func (s AuthScheme) String() string {
	switch s {
	case AuthBearer:
		return "bearer"
	case AuthAPIKey:
		return "api_key"
	default:
		return "none"
	}
}

// Auth is the credential chosen for one attempt.
type Auth struct {
	Scheme AuthScheme
	Value  string
}

// Bearer returns an Auth carrying an access token.
func Bearer(token string) Auth {
	return Auth{Scheme: AuthBearer, Value: token}
}

// APIKey returns an Auth carrying a static key.
func APIKey(key string) Auth {
	return Auth{Scheme: AuthAPIKey, Value: key}
}

// Response is a backend response with its body fully read.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// TokenPair is an access/refresh pair returned by the login or refresh
// endpoint.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Complete reports whether both halves are present and, when valid is
// non-nil, pass the shape check.
func (p TokenPair) Complete(valid func(string) bool) bool {
	if p.AccessToken == "" || p.RefreshToken == "" {
		return false
	}
	if valid == nil {
		return true
	}
	return valid(p.AccessToken) && valid(p.RefreshToken)
}

// CommitFunc persists a token pair through the session's single write path.
type CommitFunc func(ctx context.Context, pair TokenPair) error
