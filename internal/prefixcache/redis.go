package prefixcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	defaultRedisAddress = "redis://127.0.0.1:6379"
	defaultKeyPrefix    = "prefixdiff:block:"
	scanBatch           = 1000
)

// RedisStoreConfig holds the configuration for the RedisStore.
type RedisStoreConfig struct {
	// Address is a redis URL. A bare host:port is treated as redis://.
	Address string `json:"address"`

	// KeyPrefix namespaces the block keys.
	KeyPrefix string `json:"keyPrefix"`

	// TTL expires blocks after this long. Zero keeps them until redis
	// evicts them.
	TTL time.Duration `json:"ttl"`
}

// DefaultRedisStoreConfig returns the default redis store configuration.
func DefaultRedisStoreConfig() *RedisStoreConfig {
	return &RedisStoreConfig{
		Address:   defaultRedisAddress,
		KeyPrefix: defaultKeyPrefix,
	}
}

// RedisStore keeps blocks in redis, so several runs or hosts can share one
// simulated cache. Values are msgpack encoded Entry records.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = &RedisStore{}

// NewRedisStore connects to redis and pings it.
func NewRedisStore(ctx context.Context, cfg *RedisStoreConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = DefaultRedisStoreConfig()
	}

	address := cfg.Address
	if !strings.HasPrefix(address, "redis://") &&
		!strings.HasPrefix(address, "rediss://") &&
		!strings.HasPrefix(address, "unix://") {
		address = "redis://" + address
	}

	opt, err := redis.ParseURL(address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	return &RedisStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

func (r *RedisStore) redisKey(key BlockKey) string {
	return r.prefix + key.String()
}

// Get reports whether key is cached.
func (r *RedisStore) Get(ctx context.Context, key BlockKey) (bool, error) {
	b, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get block %s: %w", key, err)
	}

	var entry Entry
	if err := msgpack.Unmarshal(b, &entry); err != nil {
		return false, fmt.Errorf("failed to decode block %s: %w", key, err)
	}
	return true, nil
}

// Add stores key with the configured TTL.
func (r *RedisStore) Add(ctx context.Context, key BlockKey, entry Entry) error {
	b, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("failed to encode block %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.redisKey(key), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set block %s: %w", key, err)
	}
	return nil
}

// Len counts the keys under the store's prefix.
func (r *RedisStore) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan blocks: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// Close closes the redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
