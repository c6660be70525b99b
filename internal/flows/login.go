package flows

import (
	"context"
	"strings"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalidInput
	LoginFailureExchange
	LoginFailureMalformed
	LoginFailureCommit
)

// LoginResult is the flow-local login outcome.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Pair    TokenPair
}

// LoginDeps captures password login dependencies.
type LoginDeps struct {
	Exchange   func(ctx context.Context, email, password string) (TokenPair, error)
	ValidToken func(string) bool
	Commit     CommitFunc
}

// RunLogin exchanges credentials for a token pair and commits it. Nothing is
// written when the exchange fails; the previous session state is kept.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{Failure: LoginFailureInvalidInput}
	}

	pair, err := deps.Exchange(ctx, email, password)
	if err != nil {
		return LoginResult{Failure: LoginFailureExchange, Err: err}
	}
	if !pair.Complete(deps.ValidToken) {
		return LoginResult{Failure: LoginFailureMalformed, Err: ErrIncompletePair}
	}
	if err := deps.Commit(ctx, pair); err != nil {
		return LoginResult{Failure: LoginFailureCommit, Err: err}
	}
	return LoginResult{Pair: pair}
}

// APIKeyLoginFailureKind classifies API-key login failures.
type APIKeyLoginFailureKind int

const (
	APIKeyLoginFailureNone APIKeyLoginFailureKind = iota
	APIKeyLoginFailureEmpty
	APIKeyLoginFailureNetwork
	APIKeyLoginFailureRejected
	APIKeyLoginFailureCommit
)

// APIKeyLoginResult is the flow-local API-key login outcome.
type APIKeyLoginResult struct {
	Failure APIKeyLoginFailureKind
	Err     error
	Status  int
}

// APIKeyLoginDeps captures API-key login dependencies.
type APIKeyLoginDeps struct {
	Probe  func(ctx context.Context, key string) (status int, err error)
	Commit func(ctx context.Context, key string) error
}

// RunAPIKeyLogin probes key against the health endpoint and stores it only
// on a 2xx answer.
func RunAPIKeyLogin(ctx context.Context, key string, deps APIKeyLoginDeps) APIKeyLoginResult {
	key = strings.TrimSpace(key)
	if key == "" {
		return APIKeyLoginResult{Failure: APIKeyLoginFailureEmpty}
	}

	status, err := deps.Probe(ctx, key)
	if err != nil {
		return APIKeyLoginResult{Failure: APIKeyLoginFailureNetwork, Err: err}
	}
	if status < 200 || status >= 300 {
		return APIKeyLoginResult{Failure: APIKeyLoginFailureRejected, Status: status}
	}
	if err := deps.Commit(ctx, key); err != nil {
		return APIKeyLoginResult{Failure: APIKeyLoginFailureCommit, Err: err, Status: status}
	}
	return APIKeyLoginResult{Status: status}
}
