package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func newHSManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-test-secret-test-secret"),
		Issuer:        "authgate-test",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestWellFormed(t *testing.T) {
	cases := map[string]bool{
		"":          false,
		"a.b.c":     true,
		"a.b":       false,
		"a..c":      false,
		".b.c":      false,
		"a.b.":      false,
		"a.b.c.d":   false,
		"abc":       false,
		"aa.bb.cc_": true,
	}
	for in, want := range cases {
		if got := WellFormed(in); got != want {
			t.Errorf("WellFormed(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDecodeUnverifiedExtractsIdentity(t *testing.T) {
	m := newHSManager(t)
	token, err := m.Issue(Subject{ID: "u-1", Email: "alice@example.com", Role: "admin"}, KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := DecodeUnverified(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Identifier() != "u-1" || claims.Email != "alice@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestDecodeUnverifiedIgnoresSignature(t *testing.T) {
	m := newHSManager(t)
	token, err := m.Issue(Subject{ID: "u-1", Role: "viewer"}, KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	forged := token[:len(token)-4] + "AAAA"

	claims, err := DecodeUnverified(forged)
	if err != nil {
		t.Fatalf("decode of forged signature should still succeed: %v", err)
	}
	if claims.Role != "viewer" {
		t.Fatalf("expected role viewer, got %q", claims.Role)
	}
	if _, err := m.Parse(forged, KindAccess); err == nil {
		t.Fatal("verified parse must reject a forged signature")
	}
}

func TestDecodeUnverifiedRejectsGarbagePayload(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	for _, tok := range []string{
		"not-a-token",
		header + ".%%%.sig",
		header + "." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig",
	} {
		if _, err := DecodeUnverified(tok); !errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeUnverified(%q) error = %v, want ErrMalformed", tok, err)
		}
	}
}

func TestParseRejectsWrongKind(t *testing.T) {
	m := newHSManager(t)
	refresh, err := m.Issue(Subject{ID: "u-1"}, KindRefresh)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(refresh, KindAccess); err == nil {
		t.Fatal("refresh token must not parse as access token")
	}
	if _, err := m.Parse(refresh, KindRefresh); err != nil {
		t.Fatalf("refresh token should parse as refresh: %v", err)
	}
}

func TestIssuePairRotatesRefreshID(t *testing.T) {
	m := newHSManager(t)
	_, r1, err := m.IssuePair(Subject{ID: "u-1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	_, r2, err := m.IssuePair(Subject{ID: "u-1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if r1 == r2 {
		t.Fatal("consecutive refresh tokens must differ")
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, err := m.Issue(Subject{ID: "u-2", Role: "user"}, KindAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Parse(tok, KindAccess)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != "user" {
		t.Fatalf("expected role user, got %q", claims.Role)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	bad := []Config{
		{AccessTTL: 0, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		{AccessTTL: time.Hour, RefreshTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodHS256},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodEd25519},
		{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: "rs256", PrivateKey: []byte("k")},
	}
	for i, cfg := range bad {
		if _, err := NewManager(cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
