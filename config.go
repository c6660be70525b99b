package authgate

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/authgate/session"
)

// Config is the full Client configuration. Build it from [DefaultConfig] and
// override fields; the Builder validates it once at Build.
type Config struct {
	Backend  BackendConfig
	Cookie   CookieConfig
	APIKey   APIKeyConfig
	Redirect RedirectConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig locates the auth backend and bounds each call.
type BackendConfig struct {
	BaseURL          string
	Timeout          time.Duration
	LoginPath        string
	RefreshPath      string
	HealthPath       string
	MaxResponseBytes int64
	UserAgent        string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig sets the attributes of the mirrored credential cookies.
type CookieConfig struct {
	Path          string
	Domain        string
	Secure        bool
	HTTPOnly      bool
	SameSite      http.SameSite
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	APIKeyMaxAge  time.Duration
}

func (c CookieConfig) policy() session.CookiePolicy {
	return session.CookiePolicy{
		Path:          c.Path,
		Domain:        c.Domain,
		SameSite:      c.SameSite,
		Secure:        c.Secure,
		HTTPOnly:      c.HTTPOnly,
		AccessMaxAge:  c.AccessMaxAge,
		RefreshMaxAge: c.RefreshMaxAge,
		APIKeyMaxAge:  c.APIKeyMaxAge,
	}
}

// APIKeyConfig holds the operator-provided key. When set it takes
// precedence over any key stored in a session.
type APIKeyConfig struct {
	OperatorKey string
}

// RedirectConfig sets the navigation targets used by the dispatcher.
type RedirectConfig struct {
	LoginPath string
}

// SessionExpiredLocation is the login location carrying the expiry marker.
func (r RedirectConfig) SessionExpiredLocation() string {
	return r.LoginPath + "?session_expired=true"
}

// SessionConfig controls the script-readable surface. A zero TTL uses the
// refresh cookie lifetime.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// MustDeliver lists event types that are never shed by DropIfFull.
	MustDeliver []string
}

// MetricsConfig controls counter and histogram collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration: a local backend, the
// standard cookie contract (900s / 604800s / 2592000s, path "/",
// SameSite=Strict) and audit/metrics off.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	policy := session.DefaultCookiePolicy()
	return Config{
		Backend: BackendConfig{
			BaseURL:          "http://localhost:8000",
			Timeout:          10 * time.Second,
			LoginPath:        "/auth/login",
			RefreshPath:      "/auth/refresh",
			HealthPath:       "/health",
			MaxResponseBytes: 4 << 20,
			UserAgent:        "authgate",
		},
		Cookie: CookieConfig{
			Path:          policy.Path,
			SameSite:      policy.SameSite,
			Secure:        false,
			HTTPOnly:      true,
			AccessMaxAge:  policy.AccessMaxAge,
			RefreshMaxAge: policy.RefreshMaxAge,
			APIKeyMaxAge:  policy.APIKeyMaxAge,
		},
		Redirect: RedirectConfig{
			LoginPath: "/login",
		},
		Session: SessionConfig{
			RedisPrefix: "ag",
		},
		Audit: AuditConfig{
			Enabled:     false,
			BufferSize:  1024,
			DropIfFull:  true,
			MustDeliver: []string{AuditSessionExpired, AuditAPIKeyDropped, AuditLogout},
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	cfg.Audit.MustDeliver = append([]string(nil), cfg.Audit.MustDeliver...)
	return cfg
}

func (c *Config) sessionTTL() time.Duration {
	if c.Session.TTL > 0 {
		return c.Session.TTL
	}
	return c.Cookie.RefreshMaxAge
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error it finds.
func (c *Config) Validate() error {
	// Backend
	base := strings.TrimSpace(c.Backend.BaseURL)
	if base == "" {
		return errors.New("Backend BaseURL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("Backend BaseURL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("Backend BaseURL scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("Backend BaseURL must include a host")
	}
	if c.Backend.Timeout < 0 {
		return errors.New("Backend Timeout must be >= 0")
	}
	for name, p := range map[string]string{
		"LoginPath":   c.Backend.LoginPath,
		"RefreshPath": c.Backend.RefreshPath,
		"HealthPath":  c.Backend.HealthPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("Backend %s must start with /", name)
		}
	}
	if c.Backend.MaxResponseBytes <= 0 {
		return errors.New("Backend MaxResponseBytes must be > 0")
	}

	// Cookie
	if !strings.HasPrefix(c.Cookie.Path, "/") {
		return errors.New("Cookie Path must start with /")
	}
	if c.Cookie.AccessMaxAge <= 0 || c.Cookie.RefreshMaxAge <= 0 || c.Cookie.APIKeyMaxAge <= 0 {
		return errors.New("Cookie max-ages must be > 0")
	}
	if c.Cookie.RefreshMaxAge < c.Cookie.AccessMaxAge {
		return errors.New("Cookie RefreshMaxAge must be >= AccessMaxAge")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Redirect
	if !strings.HasPrefix(c.Redirect.LoginPath, "/") {
		return errors.New("Redirect LoginPath must start with /")
	}

	// Session
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, " \t\n") {
		return errors.New("Session RedisPrefix must not contain whitespace")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
