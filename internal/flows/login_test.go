package flows

import (
	"context"
	"errors"
	"testing"
)

func TestRunLoginCommitsOnlyOnSuccess(t *testing.T) {
	var committed TokenPair
	deps := LoginDeps{
		Exchange: func(_ context.Context, email, password string) (TokenPair, error) {
			if password != "secret" {
				return TokenPair{}, errors.New("invalid credentials")
			}
			return TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
		},
		Commit: func(_ context.Context, p TokenPair) error {
			committed = p
			return nil
		},
	}

	if res := RunLogin(context.Background(), "ops@example.com", "wrong", deps); res.Failure != LoginFailureExchange {
		t.Fatalf("expected exchange failure, got %+v", res)
	}
	if committed != (TokenPair{}) {
		t.Fatal("failed login must not commit")
	}
	if res := RunLogin(context.Background(), "  ", "secret", deps); res.Failure != LoginFailureInvalidInput {
		t.Fatalf("expected invalid input, got %+v", res)
	}
	if res := RunLogin(context.Background(), "ops@example.com", "secret", deps); res.Failure != LoginFailureNone {
		t.Fatalf("expected success, got %+v", res)
	}
	if committed.AccessToken != "a" || committed.RefreshToken != "r" {
		t.Fatalf("unexpected committed pair: %+v", committed)
	}
}

func TestRunAPIKeyLogin(t *testing.T) {
	var stored string
	deps := APIKeyLoginDeps{
		Probe: func(_ context.Context, key string) (int, error) {
			if key == "good" {
				return 200, nil
			}
			return 401, nil
		},
		Commit: func(_ context.Context, key string) error {
			stored = key
			return nil
		},
	}

	if res := RunAPIKeyLogin(context.Background(), "bad", deps); res.Failure != APIKeyLoginFailureRejected || res.Status != 401 {
		t.Fatalf("expected rejection, got %+v", res)
	}
	if stored != "" {
		t.Fatal("rejected key must not be stored")
	}
	if res := RunAPIKeyLogin(context.Background(), "", deps); res.Failure != APIKeyLoginFailureEmpty {
		t.Fatalf("expected empty failure, got %+v", res)
	}
	if res := RunAPIKeyLogin(context.Background(), " good ", deps); res.Failure != APIKeyLoginFailureNone || stored != "good" {
		t.Fatalf("expected stored key, got %+v stored=%q", res, stored)
	}

	netErr := errors.New("dial tcp: refused")
	deps.Probe = func(context.Context, string) (int, error) { return 0, netErr }
	if res := RunAPIKeyLogin(context.Background(), "good", deps); res.Failure != APIKeyLoginFailureNetwork || !errors.Is(res.Err, netErr) {
		t.Fatalf("expected network failure, got %+v", res)
	}
}
