package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Rule requires MinRole for Prefix and everything below it.
type Rule struct {
	Prefix  string `yaml:"prefix"`
	MinRole Role   `yaml:"min_role"`
}

// DefaultRules gates the admin area behind the admin role.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/admin", MinRole: RoleAdmin},
	}
}

// RoutePolicy evaluates path → minimum-role rules. It is immutable after
// construction and safe for concurrent use.
type RoutePolicy struct {
	ladder *Ladder
	rules  []Rule
}

// NewRoutePolicy validates rules against ladder. Rules are matched longest
// prefix first.
func NewRoutePolicy(ladder *Ladder, rules []Rule) (*RoutePolicy, error) {
	if ladder == nil {
		return nil, errors.New("role ladder required")
	}

	seen := make(map[string]struct{}, len(rules))
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		prefix := normalizePrefix(r.Prefix)
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start with /", r.Prefix)
		}
		if !ladder.Known(r.MinRole) {
			return nil, fmt.Errorf("route prefix %q requires unknown role %q", r.Prefix, r.MinRole)
		}
		if _, dup := seen[prefix]; dup {
			return nil, fmt.Errorf("duplicate route prefix %q", prefix)
		}
		seen[prefix] = struct{}{}
		out = append(out, Rule{Prefix: prefix, MinRole: r.MinRole})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Prefix) > len(out[j].Prefix)
	})

	return &RoutePolicy{ladder: ladder, rules: out}, nil
}

// DefaultRoutePolicy combines DefaultLadder and DefaultRules.
func DefaultRoutePolicy() *RoutePolicy {
	p, err := NewRoutePolicy(DefaultLadder(), DefaultRules())
	if err != nil {
		panic(err)
	}
	return p
}

// Ladder returns the role ladder the policy was built with.
func (p *RoutePolicy) Ladder() *Ladder {
	return p.ladder
}

// Rules returns a copy of the rules in match order.
func (p *RoutePolicy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Required returns the minimum role for path. ok is false when no rule
// matches, meaning any authenticated identity may proceed.
func (p *RoutePolicy) Required(path string) (role Role, ok bool) {
	if p == nil {
		return "", false
	}
	for _, r := range p.rules {
		if MatchPrefix(path, r.Prefix) {
			return r.MinRole, true
		}
	}
	return "", false
}

// Allows reports whether role may view path.
func (p *RoutePolicy) Allows(path string, role Role) bool {
	need, ok := p.Required(path)
	if !ok {
		return true
	}
	return p.ladder.AtLeast(role, need)
}

// MatchPrefix reports whether path equals prefix or continues it at a "/"
// boundary. "/admin" matches "/admin" and "/admin/users", not "/administrator".
func MatchPrefix(path, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if len(prefix) > 1 {
		prefix = strings.TrimRight(prefix, "/")
	}
	return prefix
}
