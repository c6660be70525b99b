package authgate

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is a configuration that validates but is likely a mistake.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of warnings produced by Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing every warning at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, len(hits))
	for i, w := range hits {
		parts[i] = w.Code + ": " + w.Message
	}
	return fmt.Errorf("config lint (%s): %s", min, strings.Join(parts, "; "))
}

// Lint reports settings that pass Validate but weaken the session boundary.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.Backend.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("backend_plaintext", LintHigh, "backend is reached over plain http on a non-loopback host; tokens travel in clear text")
	}
	if c.Backend.Timeout == 0 {
		add("backend_no_timeout", LintWarn, "backend calls have no timeout; a stalled refresh blocks every waiting request")
	}
	if !c.Cookie.Secure {
		add("cookie_insecure", LintWarn, "credential cookies are sent over plain http")
	}
	if !c.Cookie.HTTPOnly {
		add("cookie_script_readable", LintInfo, "credential cookies are readable by page scripts")
	}
	if c.Cookie.SameSite != http.SameSiteStrictMode {
		add("samesite_not_strict", LintWarn, "credential cookies are not SameSite=Strict")
	}
	if c.Cookie.AccessMaxAge > time.Hour {
		add("access_max_age_long", LintWarn, "access cookie outlives one hour")
	}
	if c.Session.TTL > 0 && c.Session.TTL < c.Cookie.RefreshMaxAge {
		add("session_shorter_than_refresh", LintWarn, "stored session expires before the refresh cookie")
	}
	if c.APIKey.OperatorKey != "" && len(c.APIKey.OperatorKey) < 16 {
		add("operator_key_short", LintWarn, "operator API key is shorter than 16 characters")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "session lifecycle events are not audited")
	}

	return ws
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
