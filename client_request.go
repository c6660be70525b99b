package authgate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/authgate/internal/flows"
)

// Request describes one logical backend call. Path is joined to the backend
// base URL; put query parameters in Query. A non-nil Body is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Result is the discriminated outcome of a request: Err is nil on success.
// Redirect holds the location the caller was sent to when the session was
// torn down.
type Result[T any] struct {
	Data      T
	Status    int
	Err       *APIError
	Redirect  string
	RequestID string
	Attempts  int
}

// OK reports success.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Do sends req with the session's credential and returns the raw JSON body.
// It never returns a Go error and never panics on transport failures.
func (c *Client) Do(ctx context.Context, s *Session, req Request) Result[json.RawMessage] {
	return Call[json.RawMessage](ctx, c, s, req)
}

// Call is Do with the 2xx body decoded into T. An empty body leaves Data at
// its zero value.
func Call[T any](ctx context.Context, c *Client, s *Session, req Request) Result[T] {
	out := c.request(ctx, s, req)
	res := Result[T]{
		Status:    out.status,
		Err:       out.err,
		Redirect:  out.redirect,
		RequestID: out.requestID,
		Attempts:  out.attempts,
	}
	if res.Err != nil || len(out.body) == 0 {
		return res
	}
	if err := json.Unmarshal(out.body, &res.Data); err != nil {
		res.Err = &APIError{
			Kind:    KindDecode,
			Status:  out.status,
			Message: "response body could not be decoded",
			Err:     fmt.Errorf("%w: %w", ErrMalformedResponse, err),
		}
	}
	return res
}

type requestOutcome struct {
	status    int
	body      []byte
	err       *APIError
	redirect  string
	requestID string
	attempts  int
}

type apiKeySource uint8

const (
	apiKeyFromOperator apiKeySource = iota
	apiKeyFromSession
)

type apiKeyCandidate struct {
	source apiKeySource
	key    string
}

// apiKeyPrecedence is the ordered list of API keys to try. The operator key
// wins so a stale stored key can never shadow it.
func (c *Client) apiKeyPrecedence(stored string) []apiKeyCandidate {
	return []apiKeyCandidate{
		{source: apiKeyFromOperator, key: c.config.APIKey.OperatorKey},
		{source: apiKeyFromSession, key: stored},
	}
}

func (c *Client) selectAuth(ctx context.Context, s *Session) flows.Auth {
	rec := s.Record(ctx)
	if rec.AccessToken != "" {
		return flows.Bearer(rec.AccessToken)
	}
	for _, cand := range c.apiKeyPrecedence(rec.APIKey) {
		if cand.key != "" {
			return flows.APIKey(cand.key)
		}
	}
	return flows.Auth{}
}

// healAPIKey drops a stored key that differs from the operator key after the
// backend rejected an API-key request.
func (c *Client) healAPIKey(ctx context.Context, s *Session, sent flows.Auth) bool {
	stored := s.APIKey(ctx)
	if stored == "" || stored == c.config.APIKey.OperatorKey {
		return false
	}
	if err := s.ClearAPIKey(ctx); err != nil {
		c.logger.WarnContext(ctx, "failed to drop stale api key", "session_id", s.ID(), "error", err)
		return false
	}
	c.metrics.Inc(MetricAPIKeyDropped)
	c.logger.WarnContext(ctx, "dropped stored api key after 401", "session_id", s.ID(),
		"operator_key_sent", sent.Value == c.config.APIKey.OperatorKey && sent.Value != "")
	c.emitAudit(ctx, AuditEvent{EventType: AuditAPIKeyDropped, SessionID: s.ID(), Credential: flows.AuthAPIKey.String(), Status: http.StatusUnauthorized, Success: true})
	return true
}

func (c *Client) request(ctx context.Context, s *Session, req Request) requestOutcome {
	if c == nil || c.api == nil {
		return requestOutcome{err: &APIError{Kind: KindNetwork, Message: ErrClientNotReady.Error(), Err: ErrClientNotReady}}
	}

	requestID := uuid.NewString()
	out := requestOutcome{requestID: requestID}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			out.err = &APIError{Kind: KindValidation, Message: "request body could not be encoded", Err: err}
			return out
		}
		body = data
	}
	header := req.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(HeaderRequestID, requestID)

	res := flows.RunDispatch(ctx, flows.DispatchDeps{
		SelectAuth: func(ctx context.Context) flows.Auth { return c.selectAuth(ctx, s) },
		Send: func(ctx context.Context, auth flows.Auth) (flows.Response, error) {
			start := time.Now()
			resp, err := c.api.send(ctx, method, req.Path, req.Query, body, header, auth)
			c.metrics.Observe(MetricRequestLatency, time.Since(start))
			return resp, err
		},
		CurrentAccessToken: s.AccessToken,
		Refresh: func(ctx context.Context, rejected string) (string, error) {
			return c.refresh(ctx, s, rejected)
		},
		Teardown: func(ctx context.Context) error {
			if s.Detached() {
				return nil
			}
			return s.Clear(ctx)
		},
		HealAPIKey: func(ctx context.Context, sent flows.Auth) bool {
			return c.healAPIKey(ctx, s, sent)
		},
	})

	out.attempts = res.Attempts
	out.status = res.Response.Status
	switch res.Retry {
	case flows.RetryRefreshed:
		c.metrics.Inc(MetricRequestRetry)
	case flows.RetryRotated:
		c.metrics.Inc(MetricRequestRetry)
		c.metrics.Inc(MetricRequestRotatedRetry)
	}
	// A pair committed through another Session with this ID is mirrored here.
	if res.Failure != flows.DispatchFailureSessionExpired && res.Auth.Scheme == flows.AuthBearer &&
		res.Auth.Value != s.Cookies().Record().AccessToken {
		s.syncCookies(ctx)
	}

	switch res.Failure {
	case flows.DispatchFailureNone:
		c.metrics.Inc(MetricRequestSuccess)
		out.body = res.Response.Body
		return out

	case flows.DispatchFailureNetwork:
		c.metrics.Inc(MetricRequestNetworkError)
		c.logger.WarnContext(ctx, "backend unreachable", "request_id", requestID, "path", req.Path, "error", res.Err)
		out.err = &APIError{Kind: KindNetwork, Message: res.Err.Error(), Err: res.Err}
		return out

	case flows.DispatchFailureCanceled:
		c.metrics.Inc(MetricRequestNetworkError)
		c.logger.DebugContext(ctx, "request abandoned during refresh", "session_id", s.ID(), "request_id", requestID, "path", req.Path)
		out.err = &APIError{Kind: KindNetwork, Status: out.status, Message: res.Err.Error(), Err: res.Err}
		return out

	case flows.DispatchFailureSessionExpired:
		c.metrics.Inc(MetricRequestFailure)
		c.metrics.Inc(MetricSessionExpired)
		if res.TeardownErr != nil {
			c.logger.WarnContext(ctx, "session teardown failed", "session_id", s.ID(), "request_id", requestID, "error", res.TeardownErr)
		}
		cause := ErrSessionExpired
		if res.RefreshErr != nil {
			cause = fmt.Errorf("%w: %w", ErrSessionExpired, res.RefreshErr)
		}
		location := c.config.Redirect.SessionExpiredLocation()
		c.logger.InfoContext(ctx, "session expired", "session_id", s.ID(), "request_id", requestID, "path", req.Path)
		c.emitAudit(ctx, AuditEvent{EventType: AuditSessionExpired, SessionID: s.ID(), RequestID: requestID, Credential: res.Auth.Scheme.String(), Path: req.Path, Status: out.status, Error: errorString(res.RefreshErr)})
		c.navigate(ctx, location)
		out.redirect = location
		out.err = &APIError{Kind: KindSessionExpired, Status: out.status, Message: "session expired, please log in again", Err: cause}
		return out

	case flows.DispatchFailureUnauthorized:
		c.metrics.Inc(MetricRequestFailure)
		out.err = &APIError{
			Kind:    KindUnauthorized,
			Status:  out.status,
			Message: flows.NormalizeError(out.status, res.Response.Body),
			Err:     ErrUnauthorized,
		}
		return out

	default:
		c.metrics.Inc(MetricRequestFailure)
		out.err = &APIError{
			Kind:    kindForStatus(out.status),
			Status:  out.status,
			Message: flows.NormalizeError(out.status, res.Response.Body),
		}
		return out
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
