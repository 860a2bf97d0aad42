package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/redis/go-redis/v9"
)

// Store persists sessions by id.
type Store interface {
	// Load returns common.ErrorNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps each session as a JSON document under "session:<id>".
// Every save renews the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	s := &Session{}
	if err := sonic.Unmarshal(data, s); err != nil {
		_ = r.client.Del(ctx, sessionKey(id)).Err()
		return nil, common.ErrorNotFound
	}
	s.ID = id
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
