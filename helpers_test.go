package authgate

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authgate/internal/authtest"
	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/session"
)

type recordingNavigator struct {
	mu        sync.Mutex
	locations []string
}

func (n *recordingNavigator) Navigate(_ context.Context, location string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locations = append(n.locations, location)
}

func (n *recordingNavigator) Locations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.locations...)
}

type testEnv struct {
	backend *authtest.Backend
	client  *Client
	nav     *recordingNavigator
}

type envOption func(*Config, *Builder)

func withOperatorKey(key string) envOption {
	return func(cfg *Config, _ *Builder) { cfg.APIKey.OperatorKey = key }
}

func withSurface(s session.Surface) envOption {
	return func(_ *Config, b *Builder) { b.WithSurface(s) }
}

func withAuditSink(sink AuditSink) envOption {
	return func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		b.WithAuditSink(sink)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	backend, err := authtest.New()
	if err != nil {
		t.Fatalf("authtest.New failed: %v", err)
	}
	t.Cleanup(backend.Close)

	nav := &recordingNavigator{}
	cfg := DefaultConfig()
	cfg.Backend.BaseURL = backend.URL()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	b := New().WithHTTPClient(backend.Client()).WithNavigator(nav)
	for _, opt := range opts {
		opt(&cfg, b)
	}
	client, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)

	return &testEnv{backend: backend, client: client, nav: nav}
}

func newRedisTestSurface(t *testing.T) (*session.RedisSurface, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return session.NewRedisSurface(rdb, "ag"), mr
}

var testUser = jwt.Subject{ID: "u-1", Email: "ops@example.com", Role: "user"}

// loggedIn returns a session holding a freshly issued pair for sub.
func (e *testEnv) loggedIn(t *testing.T, sub jwt.Subject) *Session {
	t.Helper()
	access, refresh, err := e.backend.IssuePair(sub)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	s := e.client.NewSession("")
	if err := s.SetTokens(context.Background(), access, refresh); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}
	return s
}

func cookieByName(s *Session, name string) (maxAge int, value string, ok bool) {
	for _, ck := range s.Cookies().Pending() {
		if ck.Name == name {
			return ck.MaxAge, ck.Value, true
		}
	}
	return 0, "", false
}
