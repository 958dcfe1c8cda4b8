// Package credstore persists per-session credential blobs in Redis.
//
// Credentials are opaque to the gateway: whatever the protocol client hands
// back from Credentials() is stored verbatim, keyed by session ID, and
// survives process restarts independently of the in-memory session registry.
package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements messenger.CredentialStore on top of a Redis client.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a credential store. prefix namespaces the keys so
// multiple deployments can share one Redis instance.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "chatgw"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:creds:%s", s.prefix, sessionID)
}

// Load returns the stored credential blob, or nil if none exists.
func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials for %s: %w", sessionID, err)
	}
	return data, nil
}

// Save stores the credential blob. No TTL: credentials live until the
// session is deleted or auth is rejected.
func (s *RedisStore) Save(ctx context.Context, sessionID string, creds []byte) error {
	if err := s.client.Set(ctx, s.key(sessionID), creds, 0).Err(); err != nil {
		return fmt.Errorf("save credentials for %s: %w", sessionID, err)
	}
	return nil
}

// Delete erases the credential blob. Deleting a missing key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete credentials for %s: %w", sessionID, err)
	}
	return nil
}
