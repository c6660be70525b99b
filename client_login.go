package authgate

import (
	"context"
	"fmt"

	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/MrEthical07/authgate/jwt"
)

// Login exchanges email and password for a token pair and stores it in s.
// A rejected login leaves the session untouched and returns an *APIError
// wrapping ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, s *Session, email, password string) error {
	if c == nil || c.api == nil {
		return ErrClientNotReady
	}
	if s.Detached() {
		return ErrNoSession
	}

	res := flows.RunLogin(ctx, email, password, flows.LoginDeps{
		Exchange:   c.api.login,
		ValidToken: jwt.WellFormed,
		Commit: func(ctx context.Context, p flows.TokenPair) error {
			return s.SetTokens(ctx, p.AccessToken, p.RefreshToken)
		},
	})

	var err error
	switch res.Failure {
	case flows.LoginFailureNone:
		c.metrics.Inc(MetricLoginSuccess)
		c.logger.InfoContext(ctx, "login succeeded", "session_id", s.ID())
		c.emitAudit(ctx, AuditEvent{EventType: AuditLogin, SessionID: s.ID(), UserID: userIDOf(res.Pair.AccessToken), Credential: CredentialToken.String(), Success: true})
		return nil
	case flows.LoginFailureInvalidInput:
		err = ErrInvalidCredentials
	case flows.LoginFailureMalformed:
		err = fmt.Errorf("%w: %w", ErrMalformedResponse, res.Err)
	case flows.LoginFailureCommit:
		c.metrics.Inc(MetricSessionCommitFailure)
		err = res.Err
	default:
		err = res.Err
	}

	c.metrics.Inc(MetricLoginFailure)
	c.logger.InfoContext(ctx, "login failed", "session_id", s.ID(), "error", err)
	c.emitAudit(ctx, AuditEvent{EventType: AuditLogin, SessionID: s.ID(), Credential: CredentialToken.String(), Error: err.Error()})
	return err
}

// LoginWithAPIKey probes key against the backend health endpoint and stores
// it in s when the backend accepts it.
func (c *Client) LoginWithAPIKey(ctx context.Context, s *Session, key string) error {
	if c == nil || c.api == nil {
		return ErrClientNotReady
	}
	if s.Detached() {
		return ErrNoSession
	}

	res := flows.RunAPIKeyLogin(ctx, key, flows.APIKeyLoginDeps{
		Probe:  c.api.probe,
		Commit: s.SetAPIKey,
	})

	var err error
	switch res.Failure {
	case flows.APIKeyLoginFailureNone:
		c.metrics.Inc(MetricAPIKeyLoginSuccess)
		c.logger.InfoContext(ctx, "api key accepted", "session_id", s.ID())
		c.emitAudit(ctx, AuditEvent{EventType: AuditAPIKeyLogin, SessionID: s.ID(), Credential: CredentialAPIKey.String(), Status: res.Status, Success: true})
		return nil
	case flows.APIKeyLoginFailureEmpty:
		err = ErrInvalidAPIKey
	case flows.APIKeyLoginFailureRejected:
		err = fmt.Errorf("%w: status %d", ErrInvalidAPIKey, res.Status)
	case flows.APIKeyLoginFailureCommit:
		c.metrics.Inc(MetricSessionCommitFailure)
		err = res.Err
	default:
		err = res.Err
	}

	c.metrics.Inc(MetricAPIKeyLoginFailure)
	c.logger.InfoContext(ctx, "api key login failed", "session_id", s.ID(), "status", res.Status, "error", err)
	c.emitAudit(ctx, AuditEvent{EventType: AuditAPIKeyLogin, SessionID: s.ID(), Credential: CredentialAPIKey.String(), Status: res.Status, Error: err.Error()})
	return err
}

// Logout clears every credential from both surfaces. It makes no backend
// call and is safe to repeat.
func (c *Client) Logout(ctx context.Context, s *Session) error {
	if c == nil {
		return ErrClientNotReady
	}
	userID := userIDOf(s.AccessToken(ctx))
	if err := s.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "logout failed", "session_id", s.ID(), "error", err)
		return err
	}
	c.metrics.Inc(MetricLogout)
	c.logger.InfoContext(ctx, "logged out", "session_id", s.ID())
	c.emitAudit(ctx, AuditEvent{EventType: AuditLogout, SessionID: s.ID(), UserID: userID, Success: true})
	return nil
}

// Bootstrap stores the operator API key in s when one is configured and the
// session holds no credential, so the cookie surface (and with it the edge
// guard) sees it. It reports whether anything was written.
func (c *Client) Bootstrap(ctx context.Context, s *Session) (bool, error) {
	if c == nil {
		return false, ErrClientNotReady
	}
	key := c.config.APIKey.OperatorKey
	if key == "" || s.Detached() {
		return false, nil
	}
	if s.Credential(ctx) != nil {
		return false, nil
	}
	if err := s.SetAPIKey(ctx, key); err != nil {
		c.metrics.Inc(MetricSessionCommitFailure)
		return false, err
	}
	c.metrics.Inc(MetricBootstrap)
	c.logger.InfoContext(ctx, "session bootstrapped from operator key", "session_id", s.ID())
	c.emitAudit(ctx, AuditEvent{EventType: AuditBootstrap, SessionID: s.ID(), Credential: CredentialAPIKey.String(), Success: true})
	return true, nil
}

func userIDOf(accessToken string) string {
	if accessToken == "" {
		return ""
	}
	id, err := IdentityFromToken(accessToken)
	if err != nil {
		return ""
	}
	return id.ID
}
