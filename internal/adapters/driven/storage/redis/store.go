// Package redis provides a Redis-backed implementation of driven.ResultStore,
// letting several lexiq processes share one analysis cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResultStore = (*Store)(nil)

// DefaultPrefix namespaces lexiq keys in a shared Redis database.
const DefaultPrefix = "lexiq:cache:"

// scanBatch is the COUNT hint used when clearing.
const scanBatch = 500

// Config holds connection settings.
type Config struct {
	// Addr is host:port of the Redis server.
	Addr string

	// Password is the optional AUTH password.
	Password string

	// DB selects the logical database.
	DB int

	// DialTimeout bounds connection setup (default: 5s).
	DialTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires entries after ttl. Zero keeps entries until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// Store persists cache entries as JSON strings under a key prefix.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

// New wraps an existing client. The caller keeps ownership of the client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to Redis and verifies the server answers PING.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: ping: %w", cfg.Addr, err)
	}

	s := New(client, opts...)
	s.owned = true
	return s, nil
}

func (s *Store) key(k domain.Fingerprint) string {
	return s.prefix + string(k)
}

// Get retrieves an entry by key.
func (s *Store) Get(ctx context.Context, key domain.Fingerprint) (*domain.CacheEntry, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshalling cache entry: %w", err)
	}
	entry.Key = key
	return &entry, nil
}

// Save stores or replaces an entry.
func (s *Store) Save(ctx context.Context, entry domain.CacheEntry) error {
	if entry.Key == "" {
		return domain.ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(entry.Key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear removes every entry under the prefix. Other keys are untouched.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// Close closes the client when the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
