package sdk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TokenStore is the single persistent owner of session credentials. Put
// persists every present field atomically from the caller's perspective, Get
// returns the stored session (zero when empty), Clear removes every persisted
// field. Implementations must be safe to call before any network I/O
// completes.
type TokenStore interface {
	Put(Session) error
	Get() (Session, error)
	Clear() error
}

// MemoryTokenStore keeps the session in process memory. It is the default
// store and the fixture used by tests; nothing survives a restart.
type MemoryTokenStore struct {
	mu      sync.Mutex
	session Session
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Put replaces the stored session.
func (s *MemoryTokenStore) Put(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	return nil
}

// Get returns the stored session, zero when empty.
func (s *MemoryTokenStore) Get() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, nil
}

// Clear removes the stored session.
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	return nil
}

// storedSession is the on-disk layout: opaque strings plus one numeric
// expiry timestamp in milliseconds since epoch (0 when absent).
type storedSession struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type,omitempty"`
	ExpiresAtMS  int64        `json:"token_expires_at,omitempty"`
	User         *UserProfile `json:"user,omitempty"`
}

// FileTokenStore persists the session to a JSON credentials file so it
// survives process restarts. Writes go through a temp file and rename, so a
// concurrent reader never observes a partial session.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore returns a store backed by the file at path. The file and
// any missing parent directories are created on first Put.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Put writes the session to disk atomically with owner-only permissions.
func (s *FileTokenStore) Put(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := storedSession{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    sess.TokenType,
		User:         sess.User,
	}
	if !sess.ExpiresAt.IsZero() {
		stored.ExpiresAtMS = sess.ExpiresAt.UnixMilli()
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("sdk: encode session: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("sdk: create credentials dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".paylith-session-*")
	if err != nil {
		return fmt.Errorf("sdk: write session: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sdk: write session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sdk: write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sdk: write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("sdk: write session: %w", err)
	}
	return nil
}

// Get reads the session from disk. A missing file yields a zero session.
func (s *FileTokenStore) Get() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("sdk: read session: %w", err)
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return Session{}, fmt.Errorf("sdk: decode session: %w", err)
	}
	sess := Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		User:         stored.User,
	}
	if stored.ExpiresAtMS > 0 {
		sess.ExpiresAt = time.UnixMilli(stored.ExpiresAtMS)
	}
	return sess, nil
}

// Clear removes the credentials file.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sdk: clear session: %w", err)
	}
	return nil
}
