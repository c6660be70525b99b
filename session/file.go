package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type fileRecord struct {
	Record
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// FileSurface stores one JSON file per session under dir with mode 0600.
type FileSurface struct {
	dir string
	mu  sync.Mutex
}

// NewFileSurface creates dir (0700) if needed.
func NewFileSurface(dir string) (*FileSurface, error) {
	if dir == "" {
		return nil, errors.New("file surface directory required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileSurface{dir: dir}, nil
}

// DefaultFileDir returns ~/.authgate.
func DefaultFileDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".authgate"), nil
}

func (s *FileSurface) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}

func (s *FileSurface) Load(_ context.Context, sessionID string) (Record, error) {
	path, err := s.path(sessionID)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return Record{}, ErrRecordCorrupt
	}
	if !fr.ExpiresAt.IsZero() && !time.Now().Before(fr.ExpiresAt) {
		_ = os.Remove(path)
		return Record{}, nil
	}
	return fr.Record, nil
}

// Save writes through a temp file and rename so readers never observe a
// partially written record.
func (s *FileSurface) Save(_ context.Context, sessionID string, rec Record, ttl time.Duration) error {
	path, err := s.path(sessionID)
	if err != nil {
		return err
	}
	fr := fileRecord{Record: rec}
	if ttl > 0 {
		fr.ExpiresAt = time.Now().Add(ttl).UTC()
	}
	data, err := json.MarshalIndent(fr, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return nil
}

func (s *FileSurface) Delete(_ context.Context, sessionID string) error {
	path, err := s.path(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return nil
}
