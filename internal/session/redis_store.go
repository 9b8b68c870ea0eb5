package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// RedisStore keeps each session as one JSON value. Every write resets the TTL,
// so an idle session (and its cart) expires ttl after the last mutation.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r RedisStore) Get(ctx context.Context, id string) (*State, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var state State
	if errUnmarshal := json.Unmarshal(data, &state); errUnmarshal != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", errUnmarshal)
	}
	return &state, nil
}

func (r RedisStore) Set(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	if errSet := r.client.Set(ctx, sessionKey(state.ID), data, r.ttl).Err(); errSet != nil {
		return fmt.Errorf("redis set failed: %w", errSet)
	}
	return nil
}

func (r RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
