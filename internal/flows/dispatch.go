package flows

import (
	"context"
	"net/http"
)

// DispatchFailureKind classifies dispatch outcomes for root-level mapping.
type DispatchFailureKind int

const (
	DispatchFailureNone DispatchFailureKind = iota
	// DispatchFailureNetwork means no response reached the caller.
	DispatchFailureNetwork
	// DispatchFailureStatus is any non-2xx other than an unrecovered 401.
	DispatchFailureStatus
	// DispatchFailureUnauthorized is a 401 that cannot or may no longer be
	// recovered: API-key path, no credential, or a retry that failed again.
	DispatchFailureUnauthorized
	// DispatchFailureSessionExpired is a bearer 401 whose refresh yielded
	// no token; the session has been torn down.
	DispatchFailureSessionExpired
	// DispatchFailureCanceled means the caller's context ended while it
	// waited on a refresh. The session is left to the exchange in flight.
	DispatchFailureCanceled
)

// RetryReason records why the single retry slot was spent.
type RetryReason int

const (
	RetryNone RetryReason = iota
	// RetryRotated replays with an access token another request already
	// rotated into the session.
	RetryRotated
	// RetryRefreshed replays with the token the refresh coordinator returned.
	RetryRefreshed
)

// DispatchResult carries the final response or failure metadata.
type DispatchResult struct {
	Failure  DispatchFailureKind
	Err      error
	Response Response
	// Auth is the credential attached to the last attempt.
	Auth     Auth
	Attempts int
	Retry    RetryReason
	// RefreshErr is the refresh coordinator's error when a refresh ran and
	// failed.
	RefreshErr error
	// TeardownErr is set when clearing an expired session failed.
	TeardownErr   error
	DroppedAPIKey bool
}

// DispatchDeps captures dispatch flow dependencies.
type DispatchDeps struct {
	SelectAuth         func(context.Context) Auth
	Send               func(context.Context, Auth) (Response, error)
	CurrentAccessToken func(context.Context) string
	// Refresh receives the access token that was rejected.
	Refresh  func(ctx context.Context, rejected string) (string, error)
	Teardown func(context.Context) error
	// HealAPIKey runs after a 401 on the API-key path and reports whether a
	// stored key was discarded.
	HealAPIKey func(ctx context.Context, sent Auth) bool
}

// RunDispatch sends one logical request. A 401 on the first attempt may
// spend the single retry slot; a 401 on the retry is final. At most one
// refresh runs per call.
func RunDispatch(ctx context.Context, deps DispatchDeps) DispatchResult {
	res := DispatchResult{Auth: deps.SelectAuth(ctx)}

	for isRetry := false; ; isRetry = true {
		resp, err := deps.Send(ctx, res.Auth)
		res.Attempts++
		if err != nil {
			res.Failure = DispatchFailureNetwork
			res.Err = err
			return res
		}
		res.Response = resp

		if resp.OK() {
			res.Failure = DispatchFailureNone
			return res
		}
		if resp.Status != http.StatusUnauthorized {
			res.Failure = DispatchFailureStatus
			return res
		}
		if isRetry {
			res.Failure = DispatchFailureUnauthorized
			return res
		}

		switch res.Auth.Scheme {
		case AuthBearer:
			if current := deps.CurrentAccessToken(ctx); current != "" && current != res.Auth.Value {
				res.Auth = Bearer(current)
				res.Retry = RetryRotated
				continue
			}

			token, err := deps.Refresh(ctx, res.Auth.Value)
			if token == "" && ctx.Err() != nil {
				res.Failure = DispatchFailureCanceled
				res.Err = ctx.Err()
				return res
			}
			if token == "" {
				res.RefreshErr = err
				if deps.Teardown != nil {
					res.TeardownErr = deps.Teardown(ctx)
				}
				res.Failure = DispatchFailureSessionExpired
				return res
			}
			res.Auth = Bearer(token)
			res.Retry = RetryRefreshed
			continue

		case AuthAPIKey:
			if deps.HealAPIKey != nil {
				res.DroppedAPIKey = deps.HealAPIKey(ctx, res.Auth)
			}
			res.Failure = DispatchFailureUnauthorized
			return res

		default:
			res.Failure = DispatchFailureUnauthorized
			return res
		}
	}
}
