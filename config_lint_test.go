package authgate

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func hasCode(r LintResult, code string) bool {
	for _, w := range r {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestLint_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.Lint().Codes()
	want := []string{"cookie_insecure", "audit_disabled"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLint_HardenedConfigClean(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "https://api.example.com"
	cfg.Cookie.Secure = true
	cfg.Audit.Enabled = true
	cfg.APIKey.OperatorKey = "0123456789abcdef0123"
	if r := cfg.Lint(); len(r) != 0 {
		t.Fatalf("expected no warnings, got %v", r.Codes())
	}
}

func TestLint_PlaintextBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "http://api.example.com"
	r := cfg.Lint()
	if !hasCode(r, "backend_plaintext") {
		t.Fatalf("expected backend_plaintext, got %v", r.Codes())
	}
	if r.AsError(LintHigh) == nil {
		t.Fatal("expected AsError(LintHigh) to fail")
	}

	cfg.Backend.BaseURL = "http://127.0.0.1:8000"
	if hasCode(cfg.Lint(), "backend_plaintext") {
		t.Fatal("loopback backend must not warn")
	}
}

func TestLint_Individual(t *testing.T) {
	tests := []struct {
		code   string
		mutate func(*Config)
	}{
		{"backend_no_timeout", func(c *Config) { c.Backend.Timeout = 0 }},
		{"cookie_script_readable", func(c *Config) { c.Cookie.HTTPOnly = false }},
		{"samesite_not_strict", func(c *Config) { c.Cookie.SameSite = http.SameSiteLaxMode }},
		{"access_max_age_long", func(c *Config) { c.Cookie.AccessMaxAge = 2 * time.Hour }},
		{"session_shorter_than_refresh", func(c *Config) { c.Session.TTL = time.Hour }},
		{"operator_key_short", func(c *Config) { c.APIKey.OperatorKey = "short" }},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if r := cfg.Lint(); !hasCode(r, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, r.Codes())
			}
		})
	}
}

func TestLintResultFilters(t *testing.T) {
	r := LintResult{
		{Code: "a", Severity: LintInfo},
		{Code: "b", Severity: LintWarn},
		{Code: "c", Severity: LintHigh},
	}
	if got := r.BySeverity(LintWarn).Codes(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("unexpected filter result %v", got)
	}
	if err := (LintResult{{Code: "a", Severity: LintInfo}}).AsError(LintWarn); err != nil {
		t.Fatalf("info-only result must not be an error: %v", err)
	}
	if LintHigh.String() != "HIGH" {
		t.Fatalf("unexpected severity string %q", LintHigh.String())
	}
}
