package policy

import (
	"errors"
	"strings"
	"sync"
)

// Role is a dashboard role name.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Ladder is an ordered set of roles, lowest first. Unknown roles rank below
// every registered role.
type Ladder struct {
	mu     sync.RWMutex
	rank   map[Role]int
	order  []Role
	frozen bool
}

// NewLadder returns an empty, unfrozen ladder.
func NewLadder() *Ladder {
	return &Ladder{rank: make(map[Role]int)}
}

// DefaultLadder returns the frozen viewer < user < admin < super_admin ladder.
func DefaultLadder() *Ladder {
	l := NewLadder()
	for _, r := range []Role{RoleViewer, RoleUser, RoleAdmin, RoleSuperAdmin} {
		_ = l.Register(r)
	}
	l.Freeze()
	return l
}

// Register appends role above every role registered so far.
func (l *Ladder) Register(role Role) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return errors.New("role ladder frozen")
	}
	role = Role(strings.TrimSpace(string(role)))
	if role == "" {
		return errors.New("role name empty")
	}
	if _, exists := l.rank[role]; exists {
		return errors.New("role already registered: " + string(role))
	}

	l.rank[role] = len(l.order) + 1
	l.order = append(l.order, role)
	return nil
}

// Freeze makes the ladder read-only.
func (l *Ladder) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// Known reports whether role is registered.
func (l *Ladder) Known(role Role) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.rank[role]
	return ok
}

// Rank returns the 1-based position of role, or 0 when unknown.
func (l *Ladder) Rank(role Role) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rank[role]
}

// AtLeast reports whether have ranks at or above need. An unknown have never
// satisfies a known need.
func (l *Ladder) AtLeast(have, need Role) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	needRank, ok := l.rank[need]
	if !ok {
		return false
	}
	return l.rank[have] >= needRank
}

// Roles returns the registered roles lowest first.
func (l *Ladder) Roles() []Role {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Role, len(l.order))
	copy(out, l.order)
	return out
}
