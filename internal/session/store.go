// Package session implements the server-side session store. A session is an
// opaque random token handed to the browser in a cookie and resolved here to
// the authenticated user's id and cached role. The store is injected into
// the middleware and the auth service; nothing reads ambient global state.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a token is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is the data cached per token.
type Session struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
}

// Store is the session backend. Create returns the new opaque token.
type Store interface {
	Create(ctx context.Context, userID uint64, role string) (string, error)
	Get(ctx context.Context, token string) (Session, error)
	// SetRole refreshes the cached role after a profile role change so the
	// middleware never hands out a stale role for the rest of the session.
	SetRole(ctx context.Context, token, role string) error
	Delete(ctx context.Context, token string) error
}

// New returns a Redis-backed store, or an in-memory one when rdb is nil
// (single-process deployments and tests).
func New(rdb *redis.Client, ttl time.Duration) Store {
	if rdb == nil {
		return NewMemoryStore(ttl)
	}
	return NewRedisStore(rdb, ttl)
}

// newToken returns a 64-character hex token from 32 bytes of crypto/rand.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// MemoryStore keeps sessions in a mutex-guarded map with lazy expiry.
type MemoryStore struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]memEntry
}

type memEntry struct {
	sess    Session
	expires time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, m: make(map[string]memEntry)}
}

func (s *MemoryStore) Create(_ context.Context, userID uint64, role string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.m[token] = memEntry{sess: Session{UserID: userID, Role: role}, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	e, ok := s.m[token]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	if time.Now().After(e.expires) {
		s.mu.Lock()
		delete(s.m, token)
		s.mu.Unlock()
		return Session{}, ErrNotFound
	}
	return e.sess, nil
}

func (s *MemoryStore) SetRole(_ context.Context, token, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[token]
	if !ok || time.Now().After(e.expires) {
		return ErrNotFound
	}
	e.sess.Role = role
	s.m[token] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.m, token)
	s.mu.Unlock()
	return nil
}
