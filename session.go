package authgate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/authgate/session"
)

// Session holds one caller's credentials across the script-readable surface
// and the cookie surface. Every write goes through a single commit path under
// the session mutex: the surface is written first, and cookies are mirrored
// only when that write succeeded.
//
// A Session without a surface (see [Client.NewDetachedSession]) reads as
// empty and rejects writes with ErrNoSession.
type Session struct {
	id      string
	surface session.Surface
	cookies *session.CookieSurface
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	// mu is shared by every Session a Client creates for the same ID.
	mu *sync.Mutex
}

func newSession(id string, surface session.Surface, policy session.CookiePolicy, ttl time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:      id,
		surface: surface,
		cookies: session.NewCookieSurface(policy),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		mu:      new(sync.Mutex),
	}
}

// ID returns the session identifier used as the surface key and the
// single-flight key.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Detached reports whether the session has no persistence surface.
func (s *Session) Detached() bool {
	return s == nil || s.surface == nil
}

// Record returns the stored credential state. Read failures are logged and
// yield an empty Record.
func (s *Session) Record(ctx context.Context) session.Record {
	if s.Detached() {
		return session.Record{}
	}
	rec, err := s.surface.Load(ctx, s.id)
	if err != nil {
		s.logger.WarnContext(ctx, "session surface read failed", "session_id", s.id, "error", err)
		return session.Record{}
	}
	return rec
}

func (s *Session) AccessToken(ctx context.Context) string {
	return s.Record(ctx).AccessToken
}

func (s *Session) RefreshToken(ctx context.Context) string {
	return s.Record(ctx).RefreshToken
}

func (s *Session) APIKey(ctx context.Context) string {
	return s.Record(ctx).APIKey
}

// Credential returns the active credential. Tokens take priority over an API
// key; nil means nothing is held.
func (s *Session) Credential(ctx context.Context) Credential {
	rec := s.Record(ctx)
	switch {
	case rec.AccessToken != "" || rec.RefreshToken != "":
		return TokenCredential{AccessToken: rec.AccessToken, RefreshToken: rec.RefreshToken}
	case rec.APIKey != "":
		return APIKeyCredential{Key: rec.APIKey}
	default:
		return nil
	}
}

// Identity decodes the stored access token without verification.
func (s *Session) Identity(ctx context.Context) (Identity, bool) {
	token := s.AccessToken(ctx)
	if token == "" {
		return Identity{}, false
	}
	id, err := IdentityFromToken(token)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

// SetTokens stores a rotated or freshly issued pair. The API key, if any,
// is kept.
func (s *Session) SetTokens(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("access and refresh tokens are both required")
	}
	return s.commit(ctx, func(rec session.Record) session.Record {
		rec.AccessToken = access
		rec.RefreshToken = refresh
		return rec
	})
}

// SetAPIKey stores key alongside any tokens.
func (s *Session) SetAPIKey(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("api key is required")
	}
	return s.commit(ctx, func(rec session.Record) session.Record {
		rec.APIKey = key
		return rec
	})
}

// ClearAPIKey drops only the stored API key.
func (s *Session) ClearAPIKey(ctx context.Context) error {
	return s.commit(ctx, func(rec session.Record) session.Record {
		rec.APIKey = ""
		return rec
	})
}

// Clear removes every credential from both surfaces. Cookies are re-issued
// as deletions even when the stored state was already empty.
func (s *Session) Clear(ctx context.Context) error {
	if s.Detached() {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.surface.Delete(ctx, s.id); err != nil {
		return err
	}
	s.cookies.Expire()
	return nil
}

func (s *Session) commit(ctx context.Context, mutate func(session.Record) session.Record) error {
	if s.Detached() {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.surface.Load(ctx, s.id)
	if err != nil && !errors.Is(err, session.ErrRecordCorrupt) {
		return err
	}

	next := mutate(cur)
	if next.SameCredentials(cur) && !next.Empty() {
		s.cookies.Apply(next)
		return nil
	}
	next.UpdatedAt = s.now().Unix()

	if next.Empty() {
		if err := s.surface.Delete(ctx, s.id); err != nil {
			return err
		}
	} else if err := s.surface.Save(ctx, s.id, next, s.ttl); err != nil {
		return err
	}

	s.cookies.Apply(next)
	return nil
}

// syncCookies mirrors the stored record onto this Session's cookies. It is a
// no-op when the cookies already describe it.
func (s *Session) syncCookies(ctx context.Context) {
	if s.Detached() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.surface.Load(ctx, s.id)
	if err != nil {
		s.logger.WarnContext(ctx, "session surface read failed", "session_id", s.id, "error", err)
		return
	}
	s.cookies.Apply(rec)
}

// SeedCookies tells the cookie surface which credential cookies the browser
// already holds, so only changes are re-issued.
func (s *Session) SeedCookies(r *http.Request) {
	if s == nil {
		return
	}
	s.cookies.Seed(session.RecordFromRequest(r))
}

// Cookies returns the edge-readable mirror of this session.
func (s *Session) Cookies() *session.CookieSurface {
	if s == nil {
		return nil
	}
	return s.cookies
}

// FlushCookies writes pending Set-Cookie headers to w.
func (s *Session) FlushCookies(w http.ResponseWriter) int {
	if s == nil {
		return 0
	}
	return s.cookies.Flush(w)
}
