package authgate

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	internalaudit "github.com/MrEthical07/authgate/internal/audit"
	"github.com/MrEthical07/authgate/session"
)

// Navigator moves the caller to location: a browser redirect on an edge
// server, a hint on a CLI. It is called at most once per logical request.
type Navigator interface {
	Navigate(ctx context.Context, location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, location string)

func (f NavigatorFunc) Navigate(ctx context.Context, location string) {
	f(ctx, location)
}

// Client dispatches authenticated requests to the backend and coordinates
// token refresh for the sessions it creates.
//
// A Client is safe for concurrent use after [Builder.Build]. Refresh is
// single-flight per session ID.
type Client struct {
	config    Config
	api       *authAPI
	surface   session.Surface
	cookies   session.CookiePolicy
	logger    *slog.Logger
	metrics   *Metrics
	audit     *internalaudit.Dispatcher
	navigator Navigator
	refreshes singleflight.Group
	// locks serialize commits for Sessions that share an ID.
	locks [sessionLockStripes]sync.Mutex
}

const sessionLockStripes = 64

func (c *Client) sessionLock(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &c.locks[h.Sum32()%sessionLockStripes]
}

// NewSession returns a session bound to the client's surface. An empty id
// gets a fresh random one.
func (c *Client) NewSession(id string) *Session {
	if c == nil {
		return nil
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := newSession(id, c.surface, c.cookies, c.config.sessionTTL(), c.logger)
	s.mu = c.sessionLock(id)
	return s
}

// NewDetachedSession returns a session with no persistence surface. Reads
// return empty values and writes fail with ErrNoSession; requests made with
// it can only carry the operator API key.
func (c *Client) NewDetachedSession() *Session {
	if c == nil {
		return nil
	}
	return newSession(uuid.NewString(), nil, c.cookies, 0, c.logger)
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}

// Metrics returns the client's metric counters.
func (c *Client) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// MetricsSnapshot returns a point-in-time copy of the client metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return c.metrics.Snapshot()
}

// Close drains the audit dispatcher. The client must not be used afterwards.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.audit.Close()
}

func (c *Client) navigate(ctx context.Context, location string) {
	if c.navigator == nil || location == "" {
		return
	}
	c.navigator.Navigate(ctx, location)
}
