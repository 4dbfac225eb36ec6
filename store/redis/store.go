// Package redisstore keeps session entries in redis under a key prefix.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-apiclient/core"
)

const (
	DefaultAddr      = "localhost:6379"
	DefaultKeyPrefix = "apiclient:session:"
)

// Config for the redis store. NewFromEnv fills it from the environment.
type Config struct {
	// Addr like "localhost:6379". ENV: APICLIENT_REDIS_ADDR
	Addr string `env:"APICLIENT_REDIS_ADDR,default=localhost:6379"`
	// DB index. ENV: APICLIENT_REDIS_DB
	DB int `env:"APICLIENT_REDIS_DB,default=0"`
	// Password. ENV: APICLIENT_REDIS_PASSWORD
	Password string `env:"APICLIENT_REDIS_PASSWORD"`
	// KeyPrefix for every entry. ENV: APICLIENT_REDIS_KEY_PREFIX
	KeyPrefix string `env:"APICLIENT_REDIS_KEY_PREFIX,default=apiclient:session:"`
	// TTL applied to every write; zero keeps entries forever.
	TTL time.Duration `env:"APICLIENT_REDIS_TTL"`
}

type Store struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New connects to redis and pings it.
func New(ctx context.Context, cfg Config) (*Store, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = DefaultAddr
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB, Password: cfg.Password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return NewWithClient(client, cfg.KeyPrefix, cfg.TTL)
}

// NewFromEnv builds a Store from APICLIENT_REDIS_* variables.
func NewFromEnv(ctx context.Context) (*Store, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("redisstore: decode env: %w", err)
	}
	return New(ctx, cfg)
}

func NewWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Store{client: client, keyPrefix: keyPrefix, ttl: ttl}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Key(key string) string {
	return s.keyPrefix + strings.TrimSpace(key)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if strings.TrimSpace(key) == "" {
		return nil, false, core.NewStoreError(errors.New("key is required"), key)
	}
	value, err := s.client.Get(ctx, s.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redisstore: get %s: %w", s.Key(key), err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return core.NewStoreError(errors.New("key is required"), key)
	}
	if err := s.client.Set(ctx, s.Key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", s.Key(key), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete %s: %w", s.Key(key), err)
	}
	return nil
}

var _ core.CredentialStore = (*Store)(nil)
