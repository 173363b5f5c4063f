package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kindred-recs/kindred/pkg/types"
)

// RedisConfig holds connection settings for the Redis popularity backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// PopularityKey is the sorted set holding product ids scored by
	// 30-day popularity. The popularity job is expected to ZADD every
	// catalog product, using score 0 for products with no events.
	PopularityKey string

	// ProductKeyPrefix locates the per-product metadata hash
	// ({prefix}{id} with "name" and "price" fields).
	ProductKeyPrefix string

	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:             "localhost:6379",
		PopularityKey:    "popularity:30d",
		ProductKeyPrefix: "product:",
		DialTimeout:      5 * time.Second,
		ReadTimeout:      3 * time.Second,
	}
}

// RedisPopularity implements PopularityStore against a Redis sorted set,
// for deployments where the popularity job materializes its aggregate
// into Redis instead of a Postgres table.
type RedisPopularity struct {
	client *redis.Client
	cfg    RedisConfig
}

// NewRedisPopularity connects the Redis popularity backend and verifies
// the connection with a ping.
func NewRedisPopularity(ctx context.Context, cfg RedisConfig) (*RedisPopularity, error) {
	if cfg.PopularityKey == "" {
		cfg.PopularityKey = "popularity:30d"
	}
	if cfg.ProductKeyPrefix == "" {
		cfg.ProductKeyPrefix = "product:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return &RedisPopularity{client: client, cfg: cfg}, nil
}

// TopPopular reads the top entries of the popularity sorted set and
// hydrates name and price from the per-product hashes. Sorted sets order
// equal scores lexicographically by member, which for zero-padded ids
// matches the ascending-id tie-break of the SQL backend; ids written as
// plain integers keep score order and break ties numerically here.
func (s *RedisPopularity) TopPopular(ctx context.Context, limit int) ([]types.PopularProduct, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, s.cfg.PopularityKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read popularity set: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	type scored struct {
		id    int64
		score float64
	}
	rows := make([]scored, 0, len(entries))
	cmds := make([]*redis.MapStringStringCmd, 0, len(entries))
	pipe := s.client.Pipeline()
	for _, e := range entries {
		member, ok := e.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		rows = append(rows, scored{id: id, score: e.Score})
		cmds = append(cmds, pipe.HGetAll(ctx, s.cfg.ProductKeyPrefix+member))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read product metadata: %w", err)
	}

	popular := make([]types.PopularProduct, 0, len(rows))
	for i, row := range rows {
		meta := cmds[i].Val()
		price, _ := strconv.ParseFloat(meta["price"], 64)
		popular = append(popular, types.PopularProduct{
			ID:    row.id,
			Name:  meta["name"],
			Price: price,
			Score: row.score,
		})
	}
	return popular, nil
}

// Close releases the Redis client.
func (s *RedisPopularity) Close() error {
	return s.client.Close()
}
