// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/loomsrc/internal/decompiler"
)

const redisKeyPrefix = "loomsrc:unit:"

// RedisConfig holds connection settings for a shared cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // zero keeps entries until evicted
}

// Redis shares units between machines.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis connection failed: %w", err)
	}
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Get(ctx context.Context, key decompiler.Key) (decompiler.Unit, bool, error) {
	blob, err := r.client.Get(ctx, redisKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return decompiler.Unit{}, false, nil
	}
	if err != nil {
		return decompiler.Unit{}, false, fmt.Errorf("cache: redis get: %w", err)
	}
	u, err := decode(blob)
	if err != nil {
		return decompiler.Unit{}, false, err
	}
	return u, true, nil
}

func (r *Redis) Put(ctx context.Context, key decompiler.Key, u decompiler.Unit) error {
	if u.Failed() {
		return nil
	}
	blob, err := encode(u)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key.String(), blob, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }
