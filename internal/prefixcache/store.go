package prefixcache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendCost   = "cost"
	BackendRedis  = "redis"
)

// ErrUnknownBackend is returned by NewStore for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Entry is the value stored for a block.
type Entry struct {
	// Size is the block length in bytes.
	Size int `msgpack:"size"`

	// AddedAt is when the block was admitted.
	AddedAt time.Time `msgpack:"added_at"`
}

// Store holds cached blocks.
type Store interface {
	// Get reports whether key is cached.
	Get(ctx context.Context, key BlockKey) (bool, error)

	// Add admits key. Adding a cached key refreshes it.
	Add(ctx context.Context, key BlockKey, entry Entry) error

	// Len returns the number of cached blocks.
	Len(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}

// StoreConfig selects and sizes a Store.
type StoreConfig struct {
	// Backend is one of BackendMemory, BackendCost or BackendRedis.
	Backend string

	// Memory configures BackendMemory.
	Memory *MemoryStoreConfig

	// Cost configures BackendCost.
	Cost *CostStoreConfig

	// Redis configures BackendRedis.
	Redis *RedisStoreConfig

	// OnEvict is called with every key a local store evicts.
	// Redis evicts on the server and never calls it.
	OnEvict func(BlockKey)
}

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendMemory, BackendCost, BackendRedis}
}

// NewStore creates the Store selected by cfg.Backend. Nil sub-configs use
// their defaults.
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		s, err := NewMemoryStore(cfg.Memory, cfg.OnEvict)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", err)
		}
		return s, nil
	case BackendCost:
		s, err := NewCostStore(cfg.Cost, cfg.OnEvict)
		if err != nil {
			return nil, fmt.Errorf("failed to create cost-aware store: %w", err)
		}
		return s, nil
	case BackendRedis:
		s, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q (want memory, cost or redis)", ErrUnknownBackend, cfg.Backend)
	}
}
