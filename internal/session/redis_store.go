package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lexatlas/client/internal/rbac"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session in Redis, for setups where several client
// processes share one signed-in session.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    "lexatlas:session",
	}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "lexatlas:session",
	}
}

// Load retrieves the stored session. Token and identity live under a single
// key as one JSON document, so a half-present pair cannot occur at the
// storage level; a document missing either half is still discarded whole.
func (s *RedisStore) Load(ctx context.Context) (*StoredSession, error) {
	jsonData, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var stored StoredSession
	if err := json.Unmarshal([]byte(jsonData), &stored); err != nil || !stored.valid() {
		log.Printf("session: discarding corrupt stored session")
		if err := s.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear corrupt session: %w", err)
		}
		return nil, nil
	}
	stored.Identity.Role = rbac.Normalize(string(stored.Identity.Role))
	return &stored, nil
}

// Save stores the token+identity pair as one document.
func (s *RedisStore) Save(ctx context.Context, token string, identity Identity) error {
	jsonData, err := json.Marshal(StoredSession{Token: token, Identity: identity})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, jsonData, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear deletes the stored session.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
