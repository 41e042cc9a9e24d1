package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the fast-path presence mirror other instances and the query API
// read from. Keys expire on their own, so a crashed instance degrades to
// "offline after TTL" instead of "online forever".
type Store interface {
	MarkOnline(ctx context.Context, profileID string, ttl time.Duration) error
	MarkOffline(ctx context.Context, profileID string) error
	IsOnline(ctx context.Context, profileID string) (bool, error)
	Close() error
}

// RedisConfig holds connection settings for the presence store.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "presence"
	}

	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) keyFor(profileID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, profileID)
}

func (s *redisStore) MarkOnline(ctx context.Context, profileID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyFor(profileID), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set presence key: %w", err)
	}
	return nil
}

func (s *redisStore) MarkOffline(ctx context.Context, profileID string) error {
	if err := s.client.Del(ctx, s.keyFor(profileID)).Err(); err != nil {
		return fmt.Errorf("failed to delete presence key: %w", err)
	}
	return nil
}

func (s *redisStore) IsOnline(ctx context.Context, profileID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyFor(profileID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence key: %w", err)
	}
	return n > 0, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
