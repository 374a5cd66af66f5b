package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "chat_session:"

// RedisStore shares sessions between processes. Each session is one JSON
// document whose key TTL equals the idle timeout, refreshed on release.
// Concurrent requests for the same id are last-write-wins.
type RedisStore struct {
	client *redis.Client
	opts   options
}

func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore{client: client, opts: o}
}

// Resolve implements Store.
func (s *RedisStore) Resolve(ctx context.Context, id string) (*Handle, error) {
	now := s.opts.now()
	if id != "" {
		sess, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess != nil && !sess.expired(now, s.opts.timeout) {
			sess.LastActiveAt = now
			return &Handle{Session: sess, release: s.save}, nil
		}
	}

	newID, err := s.allocate(ctx)
	if err != nil {
		return nil, err
	}
	return &Handle{Session: newSession(newID, now), Created: true, release: s.save}, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt document is treated as an unknown id.
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) allocate(ctx context.Context) (string, error) {
	for {
		id := s.opts.newID()
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return "", fmt.Errorf("session: redis exists: %w", err)
		}
		if n == 0 {
			return id, nil
		}
	}
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), payload, s.opts.timeout).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}
