package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sess:"

// RedisStore keeps sessions in Redis with a per-key TTL, shared across
// server processes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a store writing to the given client.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, userID uint64, role string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(Session{UserID: userID, Role: role})
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("session decode: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) SetRole(ctx context.Context, token, role string) error {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	sess.Role = role
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// KeepTTL preserves the remaining lifetime instead of restarting it.
	if err := s.rdb.Set(ctx, keyPrefix+token, payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("session set role: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
