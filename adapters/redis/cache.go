// Package redis provides a Redis-backed score snapshot cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"growthkit/engine"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	TTL          time.Duration `json:"ttl"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		TTL:          5 * time.Minute,
	}
}

// Cache implements engine.ScoreCache on Redis. Keys:
// - growth:score:{campaign}:{account}:{mode} -> JSON blob of engine.Score
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed cache with the provided configuration.
func New(config Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}, nil
}

// NewWithClient creates a Cache using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

func scoreKey(key engine.ScoreKey) string {
	mode := "all"
	if key.OnlyVerified {
		mode = "verified"
	}
	return fmt.Sprintf("growth:score:%s:%s:%s", key.CampaignID, key.EthAddress, mode)
}

// Get retrieves a cached snapshot; a miss returns (nil, nil).
func (c *Cache) Get(ctx context.Context, key engine.ScoreKey) (*engine.Score, error) {
	data, err := c.client.Get(ctx, scoreKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached score: %w", err)
	}

	var score engine.Score
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("failed to decode cached score: %w", err)
	}
	return &score, nil
}

// Set stores a snapshot with the cache TTL.
func (c *Cache) Set(ctx context.Context, key engine.ScoreKey, score engine.Score) error {
	data, err := json.Marshal(score)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, scoreKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache score: %w", err)
	}
	return nil
}

// Invalidate removes a cached snapshot.
func (c *Cache) Invalidate(ctx context.Context, key engine.ScoreKey) error {
	if err := c.client.Del(ctx, scoreKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached score: %w", err)
	}
	return nil
}

var _ engine.ScoreCache = (*Cache)(nil)
