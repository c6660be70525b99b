package authgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/MrEthical07/authgate/internal/flows"
)

// Request headers of the backend contract.
const (
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-API-Key"
	HeaderRequestID     = "X-Request-ID"
)

// authAPI is the HTTP transport to the backend. It never touches a Session.
type authAPI struct {
	base      *url.URL
	http      *http.Client
	cfg       BackendConfig
	userAgent string
}

func newAuthAPI(cfg BackendConfig, client *http.Client) (*authAPI, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &authAPI{base: base, http: client, cfg: cfg, userAgent: cfg.UserAgent}, nil
}

type tokenPairBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// send performs one attempt. The body is fully read up to MaxResponseBytes.
// A nil error means a response was received, whatever its status.
func (a *authAPI) send(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header, auth flows.Auth) (flows.Response, error) {
	u := a.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return flows.Response{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	switch auth.Scheme {
	case flows.AuthBearer:
		req.Header.Set(HeaderAuthorization, "Bearer "+auth.Value)
	case flows.AuthAPIKey:
		req.Header.Set(HeaderAPIKey, auth.Value)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return flows.Response{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, a.cfg.MaxResponseBytes))
	if err != nil {
		return flows.Response{}, fmt.Errorf("%w: reading response: %w", ErrNetwork, err)
	}
	return flows.Response{Status: resp.StatusCode, Body: data}, nil
}

func (a *authAPI) exchange(ctx context.Context, path string, payload any, rejected error) (flows.TokenPair, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return flows.TokenPair{}, err
	}
	resp, err := a.send(ctx, http.MethodPost, path, nil, body, nil, flows.Auth{})
	if err != nil {
		return flows.TokenPair{}, err
	}
	if !resp.OK() {
		apiErr := &APIError{
			Kind:    kindForStatus(resp.Status),
			Status:  resp.Status,
			Message: flows.NormalizeError(resp.Status, resp.Body),
		}
		if resp.Status < 500 {
			apiErr.Err = rejected
		}
		return flows.TokenPair{}, apiErr
	}

	var pair tokenPairBody
	if err := json.Unmarshal(resp.Body, &pair); err != nil {
		return flows.TokenPair{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return flows.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// login calls POST LoginPath {email, password}.
func (a *authAPI) login(ctx context.Context, email, password string) (flows.TokenPair, error) {
	return a.exchange(ctx, a.cfg.LoginPath, loginBody{Email: email, Password: password}, ErrInvalidCredentials)
}

// refresh calls POST RefreshPath {refresh_token}. The backend rotates the
// refresh token on every call.
func (a *authAPI) refresh(ctx context.Context, refreshToken string) (flows.TokenPair, error) {
	return a.exchange(ctx, a.cfg.RefreshPath, refreshBody{RefreshToken: refreshToken}, ErrUnauthorized)
}

// probe calls GET HealthPath with the key and returns the status.
func (a *authAPI) probe(ctx context.Context, key string) (int, error) {
	resp, err := a.send(ctx, http.MethodGet, a.cfg.HealthPath, nil, nil, nil, flows.APIKey(key))
	if err != nil {
		return 0, err
	}
	return resp.Status, nil
}
