package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/produced-go/internal/config"
	"github.com/andresuchdata/produced-go/internal/domain"
	"github.com/andresuchdata/produced-go/internal/report"
)

const (
	producedKeyPrefix = "produced:"
	summaryKeyPrefix  = producedKeyPrefix + "summary"
	weeklyKeyPrefix   = producedKeyPrefix + "weekly"
)

// ProducedCache holds the summary and weekly payloads served by the API.
type ProducedCache interface {
	GetSummary(ctx context.Context, r domain.DateRange) (*report.Summary, bool, error)
	SetSummary(ctx context.Context, r domain.DateRange, summary *report.Summary) error
	GetWeekly(ctx context.Context, r domain.DateRange) ([]report.WeekStats, bool, error)
	SetWeekly(ctx context.Context, r domain.DateRange, weeks []report.WeekStats) error
	// InvalidateProduced drops every cached produced payload.
	InvalidateProduced(ctx context.Context) error
}

type redisProducedCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopProducedCache struct{}

func NewProducedCache(cfg config.CacheConfig) (ProducedCache, error) {
	if !cfg.Enabled {
		return &noopProducedCache{}, nil
	}

	client, ttl, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	return &redisProducedCache{client: client, ttl: ttl}, nil
}

func NewNoopProducedCache() ProducedCache {
	return &noopProducedCache{}
}

func (c *redisProducedCache) GetSummary(ctx context.Context, r domain.DateRange) (*report.Summary, bool, error) {
	var summary report.Summary
	ok, err := c.get(ctx, buildKey(summaryKeyPrefix, r), &summary)
	if !ok || err != nil {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *redisProducedCache) SetSummary(ctx context.Context, r domain.DateRange, summary *report.Summary) error {
	return c.set(ctx, buildKey(summaryKeyPrefix, r), summary)
}

func (c *redisProducedCache) GetWeekly(ctx context.Context, r domain.DateRange) ([]report.WeekStats, bool, error) {
	var weeks []report.WeekStats
	ok, err := c.get(ctx, buildKey(weeklyKeyPrefix, r), &weeks)
	if !ok || err != nil {
		return nil, false, err
	}
	return weeks, true, nil
}

func (c *redisProducedCache) SetWeekly(ctx context.Context, r domain.DateRange, weeks []report.WeekStats) error {
	return c.set(ctx, buildKey(weeklyKeyPrefix, r), weeks)
}

func (c *redisProducedCache) InvalidateProduced(ctx context.Context) error {
	return purge(ctx, c.client, producedKeyPrefix)
}

func (c *redisProducedCache) get(ctx context.Context, key string, dst any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s cache: %w", key, err)
	}
	return true, nil
}

func (c *redisProducedCache) set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopProducedCache) GetSummary(ctx context.Context, r domain.DateRange) (*report.Summary, bool, error) {
	return nil, false, nil
}

func (n *noopProducedCache) SetSummary(ctx context.Context, r domain.DateRange, summary *report.Summary) error {
	return nil
}

func (n *noopProducedCache) GetWeekly(ctx context.Context, r domain.DateRange) ([]report.WeekStats, bool, error) {
	return nil, false, nil
}

func (n *noopProducedCache) SetWeekly(ctx context.Context, r domain.DateRange, weeks []report.WeekStats) error {
	return nil
}

func (n *noopProducedCache) InvalidateProduced(ctx context.Context) error {
	return nil
}

func buildKey(prefix string, r domain.DateRange) string {
	hash := sha1.Sum([]byte(r.Key()))
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}
