package authgate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvBackendURL     = "AUTHGATE_BACKEND_URL"
	EnvBackendTimeout = "AUTHGATE_BACKEND_TIMEOUT"
	EnvAPIKey         = "AUTHGATE_API_KEY"
	EnvCookieSecure   = "AUTHGATE_COOKIE_SECURE"
	EnvCookieDomain   = "AUTHGATE_COOKIE_DOMAIN"
	EnvRedisPrefix    = "AUTHGATE_REDIS_PREFIX"
)

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
// With no arguments it loads ".env".
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ConfigFromEnv overlays AUTHGATE_* variables onto base.
func ConfigFromEnv(base Config) (Config, error) {
	return configFromLookup(base, os.LookupEnv)
}

func configFromLookup(base Config, lookup func(string) (string, bool)) (Config, error) {
	cfg := cloneConfig(base)

	if v, ok := lookupTrimmed(lookup, EnvBackendURL); ok {
		cfg.Backend.BaseURL = v
	}
	if v, ok := lookupTrimmed(lookup, EnvBackendTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvBackendTimeout, err)
		}
		cfg.Backend.Timeout = d
	}
	if v, ok := lookupTrimmed(lookup, EnvAPIKey); ok {
		cfg.APIKey.OperatorKey = v
	}
	if v, ok := lookupTrimmed(lookup, EnvCookieSecure); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvCookieSecure, err)
		}
		cfg.Cookie.Secure = b
	}
	if v, ok := lookupTrimmed(lookup, EnvCookieDomain); ok {
		cfg.Cookie.Domain = v
	}
	if v, ok := lookupTrimmed(lookup, EnvRedisPrefix); ok {
		cfg.Session.RedisPrefix = v
	}

	return cfg, nil
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
