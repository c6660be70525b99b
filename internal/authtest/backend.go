// Package authtest runs a fake dashboard auth backend on httptest. It issues
// real signed tokens, rotates refresh tokens on every use, and counts calls
// per path so tests can assert how many exchanges a client made.
//
// It is not a production issuer: users, keys and tokens live in memory.
package authtest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/authgate/internal"
	"github.com/MrEthical07/authgate/jwt"
)

// Backend paths.
const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"
	HealthPath  = "/health"
)

// Principal is whoever a protected request authenticated as.
type Principal struct {
	Subject jwt.Subject
	APIKey  string
}

// Seen is one recorded inbound request.
type Seen struct {
	Method        string
	Path          string
	Authorization string
	APIKey        string
	RequestID     string
}

type user struct {
	password string
	subject  jwt.Subject
}

type principalKey struct{}

// Backend is a running fake backend. All methods are safe for concurrent use.
type Backend struct {
	server *httptest.Server
	tokens *jwt.Manager

	mu       sync.Mutex
	users    map[string]user
	apiKeys  map[string]bool
	access   map[string]jwt.Subject
	refresh  map[string]jwt.Subject
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	seen     []Seen

	refreshDelay  time.Duration
	refreshStatus int
	refreshBody   string
}

// New starts a Backend. Close it when done.
func New() (*Backend, error) {
	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("authtest-signing-secret-authtest"),
		Issuer:        "authtest",
	})
	if err != nil {
		return nil, err
	}

	b := &Backend{
		tokens:   tokens,
		users:    make(map[string]user),
		apiKeys:  make(map[string]bool),
		access:   make(map[string]jwt.Subject),
		refresh:  make(map[string]jwt.Subject),
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Post(LoginPath, b.handleLogin)
	r.Post(RefreshPath, b.handleRefresh)
	r.Get(HealthPath, b.handleHealth)
	r.HandleFunc("/*", b.handleProtected)

	b.server = httptest.NewServer(r)
	return b, nil
}

// URL is the base URL of the running server.
func (b *Backend) URL() string {
	return b.server.URL
}

// Client returns an http.Client wired to the server.
func (b *Backend) Client() *http.Client {
	return b.server.Client()
}

func (b *Backend) Close() {
	b.server.Close()
}

// AddUser registers a login.
func (b *Backend) AddUser(email, password string, sub jwt.Subject) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[strings.ToLower(email)] = user{password: password, subject: sub}
}

// AddAPIKey marks key as valid.
func (b *Backend) AddAPIKey(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apiKeys[key] = true
}

// NewAPIKey mints and registers a random key.
func (b *Backend) NewAPIKey() (string, error) {
	key, err := internal.RandomKey("ag_", 24)
	if err != nil {
		return "", err
	}
	b.AddAPIKey(key)
	return key, nil
}

// RevokeAPIKey makes key invalid.
func (b *Backend) RevokeAPIKey(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.apiKeys, key)
}

// IssuePair mints a pair for sub as if it had logged in.
func (b *Backend) IssuePair(sub jwt.Subject) (access, refresh string, err error) {
	access, refresh, err = b.tokens.IssuePair(sub)
	if err != nil {
		return "", "", err
	}
	b.mu.Lock()
	b.access[access] = sub
	b.refresh[refresh] = sub
	b.mu.Unlock()
	return access, refresh, nil
}

// ExpireAccessTokens makes every access token issued so far rejected, as
// when they reach their expiry. Refresh tokens stay valid.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.access)
}

// RevokeRefreshTokens makes every refresh token issued so far rejected.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.refresh)
}

// SetRefreshDelay makes every refresh exchange wait d before answering.
func (b *Backend) SetRefreshDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDelay = d
}

// FailRefresh makes refresh answer status with body verbatim. A zero status
// restores normal behavior.
func (b *Backend) FailRefresh(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
	b.refreshBody = body
}

// Handle serves h for requests to path that authenticate with a valid
// access token or API key. Unregistered protected paths answer 200 with the
// principal's id.
func (b *Backend) Handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = h
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// Seen returns every recorded request to path in arrival order.
func (b *Backend) Seen(path string) []Seen {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Seen
	for _, s := range b.seen {
		if s.Path == path {
			out = append(out, s)
		}
	}
	return out
}

// PrincipalFromRequest returns the principal of a request served through
// Handle.
func PrincipalFromRequest(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(principalKey{}).(Principal)
	return p, ok
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		b.seen = append(b.seen, Seen{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			APIKey:        r.Header.Get("X-API-Key"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	var missing []fieldError
	if in.Email == "" {
		missing = append(missing, fieldError{Loc: []any{"body", "email"}, Msg: "field required"})
	}
	if in.Password == "" {
		missing = append(missing, fieldError{Loc: []any{"body", "password"}, Msg: "field required"})
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": missing})
		return
	}

	b.mu.Lock()
	u, ok := b.users[strings.ToLower(in.Email)]
	b.mu.Unlock()
	if !ok || u.password != in.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	b.writePair(w, u.subject)
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delay, status, body := b.refreshDelay, b.refreshStatus, b.refreshBody
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}

	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "refresh_token is required")
		return
	}
	if _, err := b.tokens.Parse(in.RefreshToken, jwt.KindRefresh); err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	// Rotation: a refresh token is good for exactly one exchange.
	b.mu.Lock()
	sub, ok := b.refresh[in.RefreshToken]
	delete(b.refresh, in.RefreshToken)
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Refresh token already used")
		return
	}
	b.writePair(w, sub)
}

func (b *Backend) handleHealth(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-API-Key")
	if key != "" && !b.validKey(key) {
		writeDetail(w, http.StatusUnauthorized, "Invalid API key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) handleProtected(w http.ResponseWriter, r *http.Request) {
	p, err := b.authenticate(r)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, err.Error())
		return
	}

	b.mu.Lock()
	h := b.handlers[r.URL.Path]
	b.mu.Unlock()
	if h == nil {
		id := p.Subject.ID
		if id == "" {
			id = "api_key"
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path, "principal": id})
		return
	}
	h(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
}

func (b *Backend) authenticate(r *http.Request) (Principal, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return Principal{}, errors.New("Unsupported authorization scheme")
		}
		if _, err := b.tokens.Parse(token, jwt.KindAccess); err != nil {
			return Principal{}, errors.New("Could not validate credentials")
		}
		b.mu.Lock()
		sub, live := b.access[token]
		b.mu.Unlock()
		if !live {
			return Principal{}, errors.New("Token has expired")
		}
		return Principal{Subject: sub}, nil
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		if !b.validKey(key) {
			return Principal{}, errors.New("Invalid API key")
		}
		return Principal{APIKey: key}, nil
	}
	return Principal{}, errors.New("Not authenticated")
}

func (b *Backend) validKey(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apiKeys[key]
}

func (b *Backend) writePair(w http.ResponseWriter, sub jwt.Subject) {
	access, refresh, err := b.IssuePair(sub)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": access, "refresh_token": refresh})
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
