// Package redis backs the storefront's shared counters. Every replica of the
// API talks to the same instance so add-to-cart budgets hold across the fleet.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-catalog/pkg/config"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace = "sf"
	limitPrefix  = "rl"
)

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Incr(context.Context, string) *redis.IntCmd
	ExpireAt(context.Context, string, time.Time) *redis.BoolCmd
}

// Decision is the outcome of one counted hit inside a window.
type Decision struct {
	Allowed bool
	Count   int64
	Limit   int64
	ResetAt time.Time
}

// Remaining is the number of hits left in the current window.
func (d Decision) Remaining() int64 {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}

// RetryAfter is the wait until the window resets, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

type Client struct {
	store cmdable
	raw   *redis.Client
	now   func() time.Time
}

// New dials redis from cfg and verifies the connection with a ping.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_db", opts.DB), "redis connection established")
	}
	return &Client{store: raw, raw: raw, now: time.Now}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case strings.TrimSpace(cfg.URL) != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case strings.TrimSpace(cfg.Address) != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	default:
		return nil, errors.New("redis url or address is required")
	}

	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Allow counts one hit for scope in the fixed window containing now. Windows
// are aligned to multiples of window so every replica shares the same bucket,
// and each bucket key expires when its window ends.
func (c *Client) Allow(ctx context.Context, scope string, limit int64, window time.Duration) (Decision, error) {
	if c.store == nil {
		return Decision{}, errNotInitialized
	}
	if window <= 0 {
		return Decision{}, errors.New("rate limit window must be positive")
	}

	start := c.clock().Truncate(window)
	resetAt := start.Add(window)
	key := WindowKey(scope, start)

	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := c.store.ExpireAt(ctx, key, resetAt).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	return Decision{
		Allowed: count <= limit,
		Count:   count,
		Limit:   limit,
		ResetAt: resetAt,
	}, nil
}

// WindowKey names the counter for scope in the window starting at start.
func WindowKey(scope string, start time.Time) string {
	parts := []string{keyNamespace, limitPrefix}
	if scope = strings.TrimSpace(scope); scope != "" {
		parts = append(parts, scope)
	}
	parts = append(parts, strconv.FormatInt(start.Unix(), 10))
	return strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
