package middleware

import (
	"context"

	"github.com/MrEthical07/authgate"
)

type decisionContextKey struct{}

// DecisionFromContext returns the pass decision Guard attached to the
// request context.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

// IdentityFromContext returns the unverified identity of the caller. ok is
// false for public paths and API-key callers.
func IdentityFromContext(ctx context.Context) (authgate.Identity, bool) {
	d, ok := DecisionFromContext(ctx)
	if !ok || d.Credential != authgate.CredentialToken {
		return authgate.Identity{}, false
	}
	return d.Identity, true
}

func withDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}
