package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSurface stores encoded records under "<prefix>:s:<sessionID>".
type RedisSurface struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisSurface creates a RedisSurface. An empty prefix defaults to "ag".
func NewRedisSurface(client redis.UniversalClient, prefix string) *RedisSurface {
	if prefix == "" {
		prefix = "ag"
	}
	return &RedisSurface{redis: client, prefix: prefix}
}

func (s *RedisSurface) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

// Load fetches and decodes the record. A corrupt blob is deleted and reported
// as ErrRecordCorrupt.
func (s *RedisSurface) Load(ctx context.Context, sessionID string) (Record, error) {
	key := s.key(sessionID)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		_ = s.redis.Del(ctx, key).Err()
		return Record{}, err
	}
	return rec, nil
}

// Save writes rec with ttl. A non-positive ttl stores without expiry.
//
//	Performance: 1 Redis SET.
func (s *RedisSurface) Save(ctx context.Context, sessionID string, rec Record, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *RedisSurface) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisSurface) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return time.Since(start), nil
}
