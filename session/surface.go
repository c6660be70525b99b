package session

import (
	"context"
	"errors"
	"time"
)

// ErrSurfaceUnavailable wraps backend failures of a Surface.
var ErrSurfaceUnavailable = errors.New("session surface unavailable")

// Surface is the application-readable persistence for session records.
// Load returns a zero Record and nil error when nothing is stored.
// Implementations must be safe for concurrent use.
type Surface interface {
	Load(ctx context.Context, sessionID string) (Record, error)
	Save(ctx context.Context, sessionID string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}
