// Package rediscache shares fetched daily history between monitor processes.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

const keyPrefix = "stockmonitor:history:"

// kv is the subset of the redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// Config configures the Redis cache.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration
	Logger   ports.Logger
}

// Cache implements ports.HistoryCache on Redis with per-key expiry.
type Cache struct {
	client kv
	closer func() error
	ttl    time.Duration
	logger ports.Logger
}

var _ ports.HistoryCache = (*Cache)(nil)

type barRecord struct {
	Date   time.Time       `json:"date"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// New connects to Redis and pings the server.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Redis cache")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w: %w", cfg.Addr, ports.ErrConfigurationError, err)
	}

	cfg.Logger.Info(ctx, "Redis history cache connected", map[string]interface{}{"addr": cfg.Addr, "ttl": cfg.TTL})
	c := newCache(client, cfg.TTL, cfg.Logger)
	c.closer = client.Close
	return c, nil
}

func newCache(client kv, ttl time.Duration, logger ports.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{client: client, ttl: ttl, logger: logger, closer: func() error { return nil }}
}

// Close releases the Redis connection.
func (c *Cache) Close() error { return c.closer() }

func redisKey(key ports.CacheKey) string { return keyPrefix + key.String() }

// Get returns cached bars. Redis errors are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key ports.CacheKey) ([]domain.DailyBar, bool) {
	raw, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn(ctx, "Redis cache read failed", map[string]interface{}{"key": key.String(), "error": err.Error()})
		}
		return nil, false
	}

	var records []barRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Warn(ctx, "Discarding undecodable cache entry", map[string]interface{}{"key": key.String(), "error": err.Error()})
		return nil, false
	}
	bars := make([]domain.DailyBar, len(records))
	for i, r := range records {
		bars[i] = domain.DailyBar{Date: r.Date, Close: r.Close, Volume: r.Volume}
	}
	return bars, true
}

// Set stores bars as JSON with the cache TTL.
func (c *Cache) Set(ctx context.Context, key ports.CacheKey, bars []domain.DailyBar) {
	records := make([]barRecord, len(bars))
	for i, b := range bars {
		records[i] = barRecord{Date: b.Date, Close: b.Close, Volume: b.Volume}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		c.logger.Error(ctx, err, "Failed to encode history for cache", map[string]interface{}{"key": key.String()})
		return
	}
	if err := c.client.Set(ctx, redisKey(key), payload, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "Redis cache write failed", map[string]interface{}{"key": key.String(), "error": err.Error()})
	}
}
