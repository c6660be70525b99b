package flows

import (
	"context"
	"errors"
)

// ErrIncompletePair is reported when the backend answers 2xx without a usable
// access/refresh pair.
var ErrIncompletePair = errors.New("incomplete token pair")

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNoToken
	RefreshFailureExchange
	RefreshFailureMalformed
	RefreshFailureCommit
)

// RefreshResult carries either the new pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Pair    TokenPair
	// TornDown is true when the session was cleared because of the failure.
	TornDown    bool
	TeardownErr error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	RefreshToken func(context.Context) string
	Exchange     func(ctx context.Context, refreshToken string) (TokenPair, error)
	ValidToken   func(string) bool
	Commit       CommitFunc
	Teardown     func(context.Context) error
}

// RunRefresh exchanges the stored refresh token for a new pair and commits
// it. Any failure after the exchange was attempted tears the session down.
// An absent refresh token returns RefreshFailureNoToken without calling
// Exchange or Teardown.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	current := deps.RefreshToken(ctx)
	if current == "" {
		return RefreshResult{Failure: RefreshFailureNoToken}
	}

	pair, err := deps.Exchange(ctx, current)
	if err != nil {
		return teardown(ctx, deps, RefreshResult{Failure: RefreshFailureExchange, Err: err})
	}
	if !pair.Complete(deps.ValidToken) {
		return teardown(ctx, deps, RefreshResult{Failure: RefreshFailureMalformed, Err: ErrIncompletePair})
	}
	if err := deps.Commit(ctx, pair); err != nil {
		return teardown(ctx, deps, RefreshResult{Failure: RefreshFailureCommit, Err: err})
	}

	return RefreshResult{Pair: pair}
}

func teardown(ctx context.Context, deps RefreshDeps, res RefreshResult) RefreshResult {
	if deps.Teardown == nil {
		return res
	}
	res.TeardownErr = deps.Teardown(ctx)
	res.TornDown = res.TeardownErr == nil
	return res
}
