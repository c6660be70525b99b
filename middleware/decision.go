package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/policy"
	"github.com/MrEthical07/authgate/session"
)

// Outcome is the guard's verdict for one request.
type Outcome uint8

const (
	// OutcomePass lets the request through.
	OutcomePass Outcome = iota
	// OutcomeLogin redirects an unauthenticated caller to the login page.
	OutcomeLogin
	// OutcomeForbidden redirects a caller whose role is too low.
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeLogin:
		return "login"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// GuardConfig configures Evaluate and Guard.
type GuardConfig struct {
	// Policy maps path prefixes to minimum roles. Nil uses the default
	// policy (/admin requires admin).
	Policy *policy.RoutePolicy
	// PublicPaths pass without any credential. Matched on a segment boundary.
	PublicPaths []string
	// StaticPrefixes pass without any credential. Matched as raw prefixes.
	StaticPrefixes []string
	// LoginPath receives unauthenticated callers as ?redirect=<path>.
	LoginPath string
	// ForbiddenLocation receives callers whose role is too low.
	ForbiddenLocation string

	// Logger defaults to slog.Default.
	Logger  *slog.Logger
	Metrics *authgate.Metrics
}

// DefaultGuardConfig returns the dashboard defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Policy:            policy.DefaultRoutePolicy(),
		PublicPaths:       []string{"/login", "/register"},
		StaticPrefixes:    []string{"/static/", "/favicon.ico", "/_next/"},
		LoginPath:         "/login",
		ForbiddenLocation: "/?error=insufficient_permissions",
	}
}

func (c GuardConfig) withDefaults() GuardConfig {
	def := DefaultGuardConfig()
	if c.Policy == nil {
		c.Policy = def.Policy
	}
	if c.LoginPath == "" {
		c.LoginPath = def.LoginPath
	}
	if c.ForbiddenLocation == "" {
		c.ForbiddenLocation = def.ForbiddenLocation
	}
	return c
}

// Decision is the result of evaluating one request.
type Decision struct {
	Outcome Outcome
	// Location is the redirect target for OutcomeLogin and OutcomeForbidden.
	Location string
	// Identity is set when a well-formed access token cookie was decoded.
	Identity   authgate.Identity
	Credential authgate.CredentialKind
	// Public marks a pass granted by the public or static lists.
	Public bool
}

// Evaluate decides r from its cookies alone. It keeps no state between
// requests and never calls the backend; token payloads are decoded WITHOUT
// signature verification, so the decision is coarse routing only.
func Evaluate(r *http.Request, cfg GuardConfig) Decision {
	cfg = cfg.withDefaults()
	path := cleanPath(r.URL.Path)

	if isPublic(path, cfg) {
		return Decision{Outcome: OutcomePass, Public: true}
	}

	rec := session.RecordFromRequest(r)

	if jwt.WellFormed(rec.AccessToken) {
		if id, err := authgate.IdentityFromToken(rec.AccessToken); err == nil {
			if !cfg.Policy.Allows(path, id.Role) {
				return Decision{Outcome: OutcomeForbidden, Location: cfg.ForbiddenLocation, Identity: id, Credential: authgate.CredentialToken}
			}
			return Decision{Outcome: OutcomePass, Identity: id, Credential: authgate.CredentialToken}
		}
	}

	if rec.APIKey != "" {
		return Decision{Outcome: OutcomePass, Credential: authgate.CredentialAPIKey}
	}

	return Decision{Outcome: OutcomeLogin, Location: loginLocation(cfg.LoginPath, path)}
}

// cleanPath resolves dot segments and repeated slashes so prefix matching
// sees the path the router will serve.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

func isPublic(path string, cfg GuardConfig) bool {
	for _, p := range cfg.PublicPaths {
		if policy.MatchPrefix(path, p) {
			return true
		}
	}
	for _, p := range cfg.StaticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func loginLocation(loginPath, path string) string {
	return loginPath + "?redirect=" + url.QueryEscape(path)
}
