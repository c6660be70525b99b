package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLadderOrdering(t *testing.T) {
	l := DefaultLadder()
	if !l.AtLeast(RoleAdmin, RoleUser) {
		t.Fatal("admin should satisfy user")
	}
	if l.AtLeast(RoleUser, RoleAdmin) {
		t.Fatal("user must not satisfy admin")
	}
	if !l.AtLeast(RoleSuperAdmin, RoleAdmin) {
		t.Fatal("super_admin should satisfy admin")
	}
	if l.AtLeast("intruder", RoleViewer) {
		t.Fatal("unknown role must not satisfy viewer")
	}
	if err := l.Register("owner"); err == nil {
		t.Fatal("frozen ladder must reject registration")
	}
}

func TestLadderRejectsDuplicates(t *testing.T) {
	l := NewLadder()
	if err := l.Register(RoleViewer); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := l.Register(RoleViewer); err == nil {
		t.Fatal("expected duplicate role error")
	}
	if err := l.Register(" "); err == nil {
		t.Fatal("expected empty role error")
	}
}

func TestMatchPrefixSegmentBoundary(t *testing.T) {
	cases := []struct {
		path, prefix string
		want         bool
	}{
		{"/admin", "/admin", true},
		{"/admin/users", "/admin", true},
		{"/administrator", "/admin", false},
		{"/workflows", "/admin", false},
		{"/anything", "/", true},
	}
	for _, tc := range cases {
		if got := MatchPrefix(tc.path, tc.prefix); got != tc.want {
			t.Errorf("MatchPrefix(%q, %q) = %v, want %v", tc.path, tc.prefix, got, tc.want)
		}
	}
}

func TestRoutePolicyLongestPrefixWins(t *testing.T) {
	p, err := NewRoutePolicy(DefaultLadder(), []Rule{
		{Prefix: "/admin", MinRole: RoleAdmin},
		{Prefix: "/admin/system/", MinRole: RoleSuperAdmin},
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	if role, _ := p.Required("/admin/system/keys"); role != RoleSuperAdmin {
		t.Fatalf("expected super_admin, got %q", role)
	}
	if role, _ := p.Required("/admin/users"); role != RoleAdmin {
		t.Fatalf("expected admin, got %q", role)
	}
	if _, ok := p.Required("/workflows"); ok {
		t.Fatal("unlisted path should have no rule")
	}
	if !p.Allows("/workflows", RoleViewer) {
		t.Fatal("unlisted path should allow any authenticated role")
	}
	if p.Allows("/admin/users", RoleViewer) {
		t.Fatal("viewer must not reach /admin/users")
	}
	if !p.Allows("/admin/users", RoleAdmin) {
		t.Fatal("admin should reach /admin/users")
	}
}

func TestNewRoutePolicyValidation(t *testing.T) {
	if _, err := NewRoutePolicy(DefaultLadder(), []Rule{{Prefix: "admin", MinRole: RoleAdmin}}); err == nil {
		t.Fatal("expected prefix without leading slash to fail")
	}
	if _, err := NewRoutePolicy(DefaultLadder(), []Rule{{Prefix: "/x", MinRole: "owner"}}); err == nil {
		t.Fatal("expected unknown role to fail")
	}
	if _, err := NewRoutePolicy(DefaultLadder(), []Rule{{Prefix: "/x", MinRole: RoleUser}, {Prefix: "/x/", MinRole: RoleAdmin}}); err == nil {
		t.Fatal("expected duplicate normalized prefix to fail")
	}
	if _, err := NewRoutePolicy(nil, nil); err == nil {
		t.Fatal("expected nil ladder to fail")
	}
}

func TestParseYAMLPolicy(t *testing.T) {
	doc := []byte(`
roles: [guest, member, owner]
routes:
  - prefix: /billing
    min_role: owner
  - prefix: /reports
    min_role: member
`)
	p, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Allows("/billing/invoices", "member") {
		t.Fatal("member must not reach billing")
	}
	if !p.Allows("/reports/q1", "owner") {
		t.Fatal("owner should reach reports")
	}
}

func TestLoadFileDefaultsLadder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("routes:\n  - prefix: /admin\n    min_role: admin\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := p.Ladder().Roles(); len(got) != 4 {
		t.Fatalf("expected default ladder, got %v", got)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
