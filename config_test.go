package authgate

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantValid: true},
		{
			name:      "empty base url",
			mutate:    func(c *Config) { c.Backend.BaseURL = "  " },
			wantValid: false,
		},
		{
			name:      "ftp base url",
			mutate:    func(c *Config) { c.Backend.BaseURL = "ftp://backend" },
			wantValid: false,
		},
		{
			name:      "base url without host",
			mutate:    func(c *Config) { c.Backend.BaseURL = "http://" },
			wantValid: false,
		},
		{
			name:      "refresh path without slash",
			mutate:    func(c *Config) { c.Backend.RefreshPath = "auth/refresh" },
			wantValid: false,
		},
		{
			name:      "negative timeout",
			mutate:    func(c *Config) { c.Backend.Timeout = -time.Second },
			wantValid: false,
		},
		{
			name:      "zero timeout allowed",
			mutate:    func(c *Config) { c.Backend.Timeout = 0 },
			wantValid: true,
		},
		{
			name:      "refresh cookie shorter than access",
			mutate:    func(c *Config) { c.Cookie.RefreshMaxAge = time.Minute },
			wantValid: false,
		},
		{
			name: "samesite none without secure",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
				c.Cookie.Secure = false
			},
			wantValid: false,
		},
		{
			name: "samesite none with secure",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
				c.Cookie.Secure = true
			},
			wantValid: true,
		},
		{
			name:      "redis prefix with space",
			mutate:    func(c *Config) { c.Session.RedisPrefix = "a g" },
			wantValid: false,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultCookieContract(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cookie.AccessMaxAge != 900*time.Second {
		t.Fatalf("access max-age: %v", cfg.Cookie.AccessMaxAge)
	}
	if cfg.Cookie.RefreshMaxAge != 604800*time.Second {
		t.Fatalf("refresh max-age: %v", cfg.Cookie.RefreshMaxAge)
	}
	if cfg.Cookie.APIKeyMaxAge != 2592000*time.Second {
		t.Fatalf("api key max-age: %v", cfg.Cookie.APIKeyMaxAge)
	}
	if cfg.Cookie.Path != "/" || cfg.Cookie.SameSite != http.SameSiteStrictMode || !cfg.Cookie.HTTPOnly || cfg.Cookie.Secure {
		t.Fatalf("unexpected cookie attributes: %+v", cfg.Cookie)
	}
	if got := cfg.Redirect.SessionExpiredLocation(); got != "/login?session_expired=true" {
		t.Fatalf("unexpected session expired location %q", got)
	}
	if got := cfg.sessionTTL(); got != cfg.Cookie.RefreshMaxAge {
		t.Fatalf("session ttl should follow refresh cookie, got %v", got)
	}
}

func TestConfigFromLookup(t *testing.T) {
	env := map[string]string{
		EnvBackendURL:     "https://api.example.com",
		EnvBackendTimeout: "3s",
		EnvAPIKey:         " operator-key-0123456789 ",
		EnvCookieSecure:   "true",
		EnvRedisPrefix:    "dash",
	}
	cfg, err := configFromLookup(DefaultConfig(), func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("configFromLookup failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" || cfg.Backend.Timeout != 3*time.Second {
		t.Fatalf("backend not overlaid: %+v", cfg.Backend)
	}
	if cfg.APIKey.OperatorKey != "operator-key-0123456789" {
		t.Fatalf("operator key not trimmed: %q", cfg.APIKey.OperatorKey)
	}
	if !cfg.Cookie.Secure || cfg.Session.RedisPrefix != "dash" {
		t.Fatalf("cookie/session not overlaid: %+v %+v", cfg.Cookie, cfg.Session)
	}
	if cfg.Backend.LoginPath != "/auth/login" {
		t.Fatalf("unset fields must keep base values, got %q", cfg.Backend.LoginPath)
	}
}

func TestConfigFromLookupRejectsBadValues(t *testing.T) {
	for _, key := range []string{EnvBackendTimeout, EnvCookieSecure} {
		_, err := configFromLookup(DefaultConfig(), func(k string) (string, bool) {
			if k == key {
				return "not-a-value", true
			}
			return "", false
		})
		if err == nil {
			t.Fatalf("expected error for bad %s", key)
		}
	}
}

func TestConfigFromEnvWithEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("AUTHGATE_BACKEND_URL=https://from-file.example.com\nAUTHGATE_API_KEY=file-key\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Already-set variables win over the file.
	t.Setenv(EnvAPIKey, "process-key")
	t.Setenv(EnvBackendURL, "")
	os.Unsetenv(EnvBackendURL)

	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadEnvFiles failed: %v", err)
	}
	cfg, err := ConfigFromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://from-file.example.com" {
		t.Fatalf("expected url from file, got %q", cfg.Backend.BaseURL)
	}
	if cfg.APIKey.OperatorKey != "process-key" {
		t.Fatalf("expected process env to win, got %q", cfg.APIKey.OperatorKey)
	}
}
