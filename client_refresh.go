package authgate

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/MrEthical07/authgate/jwt"
)

// Refresh exchanges the session's refresh token for a new pair and returns
// the new access token.
//
// Concurrent calls for the same session ID share one backend exchange and
// its outcome. The exchange runs detached from ctx cancellation so a caller
// that gives up does not fail the others; that caller gets ctx.Err().
//
// With no refresh token it returns ErrNoRefreshToken without a network call.
// Any other failure clears the session and wraps ErrRefreshFailed.
func (c *Client) Refresh(ctx context.Context, s *Session) (string, error) {
	return c.refresh(ctx, s, "")
}

// refresh is Refresh for a dispatcher that just had rejected refused. If the
// session already holds a different access token by the time the shared call
// starts, another request rotated it and no exchange is made.
func (c *Client) refresh(ctx context.Context, s *Session, rejected string) (string, error) {
	if c == nil || c.api == nil {
		return "", ErrClientNotReady
	}
	if s.Detached() {
		return "", ErrNoSession
	}
	if s.RefreshToken(ctx) == "" {
		c.metrics.Inc(MetricRefreshSkipped)
		return "", ErrNoRefreshToken
	}

	ch := c.refreshes.DoChan(s.ID(), func() (any, error) {
		detached := context.WithoutCancel(ctx)
		if rejected != "" {
			if current := s.AccessToken(detached); current != "" && current != rejected {
				return current, nil
			}
		}
		return c.runRefresh(detached, s)
	})

	select {
	case r := <-ch:
		if r.Shared {
			c.metrics.Inc(MetricRefreshShared)
		}
		if r.Err != nil {
			return "", r.Err
		}
		// The pair may have been committed through another Session with
		// the same ID; bring this one's cookies up to the stored state.
		s.syncCookies(ctx)
		return r.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) runRefresh(ctx context.Context, s *Session) (string, error) {
	start := time.Now()
	res := flows.RunRefresh(ctx, flows.RefreshDeps{
		RefreshToken: s.RefreshToken,
		Exchange:     c.api.refresh,
		ValidToken:   jwt.WellFormed,
		Commit: func(ctx context.Context, p flows.TokenPair) error {
			return s.SetTokens(ctx, p.AccessToken, p.RefreshToken)
		},
		Teardown: s.Clear,
	})
	c.metrics.Observe(MetricRefreshLatency, time.Since(start))

	switch res.Failure {
	case flows.RefreshFailureNone:
		c.metrics.Inc(MetricRefreshSuccess)
		c.logger.InfoContext(ctx, "session refreshed", "session_id", s.ID())
		c.emitAudit(ctx, AuditEvent{EventType: AuditRefresh, SessionID: s.ID(), Credential: CredentialToken.String(), Success: true})
		return res.Pair.AccessToken, nil

	case flows.RefreshFailureNoToken:
		c.metrics.Inc(MetricRefreshSkipped)
		return "", ErrNoRefreshToken
	}

	c.metrics.Inc(MetricRefreshFailure)
	if res.Failure == flows.RefreshFailureCommit {
		c.metrics.Inc(MetricSessionCommitFailure)
	}
	if res.TeardownErr != nil {
		c.logger.WarnContext(ctx, "session teardown after refresh failure failed", "session_id", s.ID(), "error", res.TeardownErr)
	}

	var err error
	if res.Failure == flows.RefreshFailureMalformed {
		err = fmt.Errorf("%w: %w: %w", ErrRefreshFailed, ErrMalformedResponse, res.Err)
	} else {
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, res.Err)
	}
	c.logger.WarnContext(ctx, "session refresh failed", "session_id", s.ID(), "error", res.Err)
	c.emitAudit(ctx, AuditEvent{EventType: AuditRefresh, SessionID: s.ID(), Credential: CredentialToken.String(), Error: res.Err.Error()})
	return "", err
}
