package authgate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authgate/internal/authtest"
	"github.com/MrEthical07/authgate/session"
)

func TestRefreshWithoutRefreshTokenMakesNoCall(t *testing.T) {
	env := newTestEnv(t)
	s := env.client.NewSession("")

	token, err := env.client.Refresh(context.Background(), s)
	if token != "" || !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %q %v", token, err)
	}
	if got := env.backend.Calls(authtest.RefreshPath); got != 0 {
		t.Fatalf("expected no refresh call, got %d", got)
	}
	if env.client.Metrics().Value(MetricRefreshSkipped) != 1 {
		t.Fatal("expected refresh skipped metric")
	}
}

func TestRefreshRotatesBothTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.loggedIn(t, testUser)
	before := s.Record(ctx)

	token, err := env.client.Refresh(ctx, s)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	after := s.Record(ctx)
	if token != after.AccessToken {
		t.Fatal("returned token must be the stored one")
	}
	if after.AccessToken == before.AccessToken || after.RefreshToken == before.RefreshToken {
		t.Fatal("expected both tokens rotated")
	}
}

func TestRefreshDetachedSession(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.client.Refresh(context.Background(), env.client.NewDetachedSession()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestRefreshIsSingleFlight(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetRefreshDelay(150 * time.Millisecond)
	ctx := context.Background()
	s := env.loggedIn(t, testUser)

	const callers = 2
	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		tokens [callers]string
		errs   [callers]error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tokens[i], errs[i] = env.client.Refresh(ctx, s)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
	}
	if tokens[0] == "" || tokens[0] != tokens[1] {
		t.Fatalf("expected the same token for both callers, got %q and %q", tokens[0], tokens[1])
	}
	if got := env.backend.Calls(authtest.RefreshPath); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
}

func TestConcurrentExpiredRequestsShareOneRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetRefreshDelay(50 * time.Millisecond)
	ctx := context.Background()
	s := env.loggedIn(t, testUser)
	env.backend.ExpireAccessTokens()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]*APIError, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = env.client.Do(ctx, s, Request{Path: "/workflows"}).Err
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	if got := env.backend.Calls(authtest.RefreshPath); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
	if got := env.backend.Calls("/workflows"); got > 2*callers {
		t.Fatalf("expected at most %d endpoint calls, got %d", 2*callers, got)
	}
}

func TestRefreshCallerCancellationDoesNotFailOthers(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetRefreshDelay(150 * time.Millisecond)
	s := env.loggedIn(t, testUser)

	cancelled, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := env.client.Refresh(cancelled, s)
		done <- err
	}()

	// Let the first caller start the shared exchange, then abandon it.
	time.Sleep(30 * time.Millisecond)
	waiter := make(chan string, 1)
	go func() {
		token, _ := env.client.Refresh(context.Background(), s)
		waiter <- token
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for abandoning caller, got %v", err)
	}
	if token := <-waiter; token == "" {
		t.Fatal("remaining caller must get the refreshed token")
	}
	if got := env.backend.Calls(authtest.RefreshPath); got != 1 {
		t.Fatalf("expected 1 refresh call, got %d", got)
	}
	if s.AccessToken(context.Background()) == "" {
		t.Fatal("session must hold the refreshed pair")
	}
}

func TestSessionsSharingAnIDMirrorOneRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetRefreshDelay(50 * time.Millisecond)
	ctx := context.Background()
	first := env.loggedIn(t, testUser)
	second := env.client.NewSession(first.ID())
	second.Cookies().Seed(first.Record(ctx))
	first.Cookies().Seed(first.Record(ctx))
	env.backend.ExpireAccessTokens()

	var wg sync.WaitGroup
	errs := make([]*APIError, 2)
	start := make(chan struct{})
	for i, s := range []*Session{first, second} {
		wg.Add(1)
		go func(i int, s *Session) {
			defer wg.Done()
			<-start
			errs[i] = env.client.Do(ctx, s, Request{Path: "/workflows"}).Err
		}(i, s)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	if got := env.backend.Calls(authtest.RefreshPath); got != 1 {
		t.Fatalf("expected 1 refresh call, got %d", got)
	}
	stored := first.Record(ctx)
	for i, s := range []*Session{first, second} {
		if !s.Cookies().Record().SameCredentials(stored) {
			t.Fatalf("session %d cookies do not match the stored pair", i)
		}
		if _, value, ok := cookieByName(s, session.CookieAccessToken); !ok || value != stored.AccessToken {
			t.Fatalf("session %d must queue the rotated access cookie", i)
		}
		if _, value, ok := cookieByName(s, session.CookieRefreshToken); !ok || value != stored.RefreshToken {
			t.Fatalf("session %d must queue the rotated refresh cookie", i)
		}
	}
}

func TestSessionsSharingAnIDShareALock(t *testing.T) {
	env := newTestEnv(t)
	a := env.client.NewSession("shared")
	b := env.client.NewSession("shared")
	if a.mu != b.mu {
		t.Fatal("sessions with one id must commit under one lock")
	}
}
