// Package overrides keeps bucket overrides in a Redis hash so several
// categorizer processes can share them.
//
// Each hash field is a canonical key; each value is a JSON number (pin by
// index) or a JSON string (pin by label):
//
//	HSET cat32:overrides "\"hello\"" 3
//	HSET cat32:overrides "\"world\"" "\"Z\""
package overrides

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Neumenon/cat32/cat32"
)

// DefaultKey is the hash used when none is configured.
const DefaultKey = "cat32:overrides"

// Store defines the operations on a shared override table.
type Store interface {
	// Load returns every override in the table.
	Load(ctx context.Context) (map[string]cat32.Override, error)

	// Pin stores an override for a canonical key, replacing any previous one.
	Pin(ctx context.Context, key string, o cat32.Override) error

	// Unpin removes the override for a canonical key.
	Unpin(ctx context.Context, key string) error

	// Close releases the connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0")
	URL string

	// Key is the hash holding the overrides. Defaults to DefaultKey.
	Key string

	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger
}

// RedisStore implements Store on a Redis hash using go-redis/v9.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, key: opts.Key, logger: opts.Logger}, nil
}

// Key returns the name of the hash.
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads the whole hash.
func (s *RedisStore) Load(ctx context.Context) (map[string]cat32.Override, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	out := make(map[string]cat32.Override, len(fields))
	for field, raw := range fields {
		o, err := decodeOverride(raw)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", field, err)
		}
		out[field] = o
	}

	s.logger.Debug("loaded overrides", "key", s.key, "count", len(out))
	return out, nil
}

// Option loads the hash and returns it as a categorizer option.
func (s *RedisStore) Option(ctx context.Context) (cat32.Option, error) {
	loaded, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cat32.WithOverrides(loaded), nil
}

// Pin stores an override. Non-finite indexes cannot be stored.
func (s *RedisStore) Pin(ctx context.Context, key string, o cat32.Override) error {
	raw, err := encodeOverride(o)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key, key, raw).Err(); err != nil {
		return fmt.Errorf("failed to pin override: %w", err)
	}
	s.logger.Debug("pinned override", "key", s.key, "field", key, "value", raw)
	return nil
}

// Unpin deletes an override. Removing a missing key is not an error.
func (s *RedisStore) Unpin(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("failed to unpin override: %w", err)
	}
	s.logger.Debug("unpinned override", "key", s.key, "field", key)
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeOverride(raw string) (cat32.Override, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return cat32.Override{}, fmt.Errorf("invalid JSON value: %w", err)
	}
	switch val := v.(type) {
	case float64:
		return cat32.PinNumber(val), nil
	case string:
		return cat32.PinLabel(val), nil
	default:
		return cat32.Override{}, fmt.Errorf("expected a number or a string, got %s", raw)
	}
}

func encodeOverride(o cat32.Override) (string, error) {
	if label, ok := o.Label(); ok {
		data, err := json.Marshal(label)
		return string(data), err
	}
	n, _ := o.Index()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "", fmt.Errorf("cannot store non-finite index %v", n)
	}
	data, err := json.Marshal(n)
	return string(data), err
}
