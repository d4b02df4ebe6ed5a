package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/metrics"
)

const (
	DefaultMaxBytes     = 512 * 1024
	DefaultFeedMaxBytes = 64 * 1024

	feedPrefix = "feed:"
	scanCount  = 200
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Options struct {
	// MaxBytes bounds the serialized value of every key outside feed:.
	MaxBytes int
	// FeedMaxBytes bounds feed: keys.
	FeedMaxBytes int
	Clock        Clock
}

// envelope is what actually sits in Redis. stored_at + ttl_seconds drives lazy
// expiry so an entry is never served past its TTL even if Redis still holds it.
type envelope struct {
	StoredAt   time.Time       `json:"stored_at"`
	TTLSeconds float64         `json:"ttl_seconds"`
	Value      json.RawMessage `json:"value"`
}

type Client struct {
	rdb          *redis.Client
	maxBytes     int
	feedMaxBytes int
	clock        Clock
}

func New(url string, opts Options) (*Client, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(o)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewFromClient(rdb, opts), nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(rdb *redis.Client, opts Options) *Client {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.FeedMaxBytes <= 0 {
		opts.FeedMaxBytes = DefaultFeedMaxBytes
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &Client{
		rdb:          rdb,
		maxBytes:     opts.MaxBytes,
		feedMaxBytes: opts.FeedMaxBytes,
		clock:        opts.Clock,
	}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Get(ctx context.Context, key string, dest any) (bool, error) {
	ns := namespace(key)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookup(ns, "miss")
		return false, nil
	}
	if err != nil {
		metrics.CacheLookup(ns, "error")
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.CacheLookup(ns, "error")
		return false, fmt.Errorf("decode cache envelope %s: %w", key, err)
	}

	if env.TTLSeconds > 0 {
		expiresAt := env.StoredAt.Add(time.Duration(env.TTLSeconds * float64(time.Second)))
		if !c.clock.Now().Before(expiresAt) {
			metrics.CacheLookup(ns, "expired")
			if err := c.rdb.Del(ctx, key).Err(); err != nil {
				zlog.Debug().Err(err).Str("key", key).Msg("cache expired entry delete failed")
			}
			return false, nil
		}
	}

	if err := json.Unmarshal(env.Value, dest); err != nil {
		metrics.CacheLookup(ns, "error")
		return false, fmt.Errorf("decode cache value %s: %w", key, err)
	}
	metrics.CacheLookup(ns, "hit")
	return true, nil
}

// Set stores val under key. A value whose JSON encoding exceeds the ceiling
// for the key's namespace is not stored and any previous entry is dropped;
// that is logged and counted, not returned as an error.
func (c *Client) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	value, err := json.Marshal(val)
	if err != nil {
		return err
	}

	limit := c.limitFor(key)
	if len(value) > limit {
		ns := namespace(key)
		metrics.CacheOversize(ns)
		zlog.Warn().
			Str("key", key).
			Int("size_bytes", len(value)).
			Int("limit_bytes", limit).
			Msg("cache value exceeds size ceiling, not stored")
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache stale entry delete failed")
		}
		return nil
	}

	if ttl < 0 {
		ttl = 0
	}
	b, err := json.Marshal(envelope{
		StoredAt:   c.clock.Now().UTC(),
		TTLSeconds: ttl.Seconds(),
		Value:      value,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Invalidate deletes every key matching a glob pattern such as "feed:*".
func (c *Client) Invalidate(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete %s: %w", pattern, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *Client) limitFor(key string) int {
	if strings.HasPrefix(key, feedPrefix) {
		return c.feedMaxBytes
	}
	return c.maxBytes
}

func namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
