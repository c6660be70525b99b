package session

import (
	"net/http"
	"sort"
	"sync"
	"time"
)

// Cookie names read by the edge guard.
const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
	CookieAPIKey       = "api_key"
)

// CookiePolicy sets the attributes of mirrored cookies. Each max-age matches
// the semantic lifetime of the credential it carries.
type CookiePolicy struct {
	Path          string
	Domain        string
	SameSite      http.SameSite
	Secure        bool
	HTTPOnly      bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	APIKeyMaxAge  time.Duration
}

// DefaultCookiePolicy returns path "/", SameSite=Strict and max-ages of 15
// minutes, 7 days and 30 days.
func DefaultCookiePolicy() CookiePolicy {
	return CookiePolicy{
		Path:          "/",
		SameSite:      http.SameSiteStrictMode,
		HTTPOnly:      true,
		AccessMaxAge:  900 * time.Second,
		RefreshMaxAge: 604800 * time.Second,
		APIKeyMaxAge:  2592000 * time.Second,
	}
}

func (p CookiePolicy) maxAge(name string) time.Duration {
	switch name {
	case CookieAccessToken:
		return p.AccessMaxAge
	case CookieRefreshToken:
		return p.RefreshMaxAge
	default:
		return p.APIKeyMaxAge
	}
}

// Cookie builds the cookie for name. An empty value yields a deletion
// (MaxAge=-1).
func (p CookiePolicy) Cookie(name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.Path,
		Domain:   p.Domain,
		SameSite: p.SameSite,
		Secure:   p.Secure,
		HttpOnly: p.HTTPOnly,
	}
	if value == "" {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		return c
	}
	c.MaxAge = int(p.maxAge(name) / time.Second)
	return c
}

// CookieSurface is the edge-readable mirror of a session Record. Apply queues
// Set-Cookie instructions for the fields that changed; Flush writes them.
type CookieSurface struct {
	mu      sync.Mutex
	policy  CookiePolicy
	current Record
	pending map[string]*http.Cookie
}

// NewCookieSurface returns an empty CookieSurface.
func NewCookieSurface(policy CookiePolicy) *CookieSurface {
	return &CookieSurface{
		policy:  policy,
		pending: make(map[string]*http.Cookie, 3),
	}
}

// Seed sets the known cookie state, typically from an incoming request,
// without queuing any Set-Cookie.
func (c *CookieSurface) Seed(rec Record) {
	c.mu.Lock()
	c.current = credentialsOnly(rec)
	c.mu.Unlock()
}

// Apply mirrors next, queuing a cookie for every credential that differs
// from the current state.
func (c *CookieSurface) Apply(next Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current
	if prev.AccessToken != next.AccessToken {
		c.pending[CookieAccessToken] = c.policy.Cookie(CookieAccessToken, next.AccessToken)
	}
	if prev.RefreshToken != next.RefreshToken {
		c.pending[CookieRefreshToken] = c.policy.Cookie(CookieRefreshToken, next.RefreshToken)
	}
	if prev.APIKey != next.APIKey {
		c.pending[CookieAPIKey] = c.policy.Cookie(CookieAPIKey, next.APIKey)
	}
	c.current = credentialsOnly(next)
}

// Expire queues deletions for all three cookies regardless of the known
// state, so a browser holding stale cookies is cleaned up too.
func (c *CookieSurface) Expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range []string{CookieAccessToken, CookieRefreshToken, CookieAPIKey} {
		c.pending[name] = c.policy.Cookie(name, "")
	}
	c.current = Record{}
}

// Record returns the credential state the cookies currently describe.
func (c *CookieSurface) Record() Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Pending returns copies of the queued cookies sorted by name.
func (c *CookieSurface) Pending() []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedPendingLocked()
}

// Flush writes every queued cookie to w and clears the queue. It returns the
// number of cookies written.
func (c *CookieSurface) Flush(w http.ResponseWriter) int {
	c.mu.Lock()
	out := c.sortedPendingLocked()
	clear(c.pending)
	c.mu.Unlock()

	for _, ck := range out {
		http.SetCookie(w, ck)
	}
	return len(out)
}

func (c *CookieSurface) sortedPendingLocked() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(c.pending))
	for _, ck := range c.pending {
		cp := *ck
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RecordFromRequest decodes the credential cookies carried by r.
func RecordFromRequest(r *http.Request) Record {
	var rec Record
	if r == nil {
		return rec
	}
	if ck, err := r.Cookie(CookieAccessToken); err == nil {
		rec.AccessToken = ck.Value
	}
	if ck, err := r.Cookie(CookieRefreshToken); err == nil {
		rec.RefreshToken = ck.Value
	}
	if ck, err := r.Cookie(CookieAPIKey); err == nil {
		rec.APIKey = ck.Value
	}
	return rec
}

// RecordFromCookies folds a Set-Cookie sequence into a Record the way a
// browser would: later cookies win and MaxAge<0 deletes.
func RecordFromCookies(base Record, cookies []*http.Cookie) Record {
	rec := credentialsOnly(base)
	for _, ck := range cookies {
		value := ck.Value
		if ck.MaxAge < 0 {
			value = ""
		}
		switch ck.Name {
		case CookieAccessToken:
			rec.AccessToken = value
		case CookieRefreshToken:
			rec.RefreshToken = value
		case CookieAPIKey:
			rec.APIKey = value
		}
	}
	return rec
}

func credentialsOnly(r Record) Record {
	return Record{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken, APIKey: r.APIKey}
}
