package prefixcache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dustin/go-humanize"
)

const (
	defaultCostSize    = "2GiB"
	defaultNumCounters = 1e6 // keys tracked for admission
	defaultBufferItems = 64
)

// CostStoreConfig holds the configuration for the CostStore.
type CostStoreConfig struct {
	// Size is the byte budget. Supports human-readable formats like
	// "2GiB", "500MiB" or "1GB".
	Size string `json:"size,omitempty"`
}

// DefaultCostStoreConfig returns the default cost-aware store configuration.
func DefaultCostStoreConfig() *CostStoreConfig {
	return &CostStoreConfig{Size: defaultCostSize}
}

// CostStore is a ristretto cache bounded by the total bytes of its blocks.
// Admission is frequency based, so a new block may be rejected when the
// cache is full of blocks that are used more often.
type CostStore struct {
	data *ristretto.Cache[uint64, Entry]
}

var _ Store = &CostStore{}

// NewCostStore creates a CostStore. onEvict may be nil.
func NewCostStore(cfg *CostStoreConfig, onEvict func(BlockKey)) (*CostStore, error) {
	if cfg == nil {
		cfg = DefaultCostStoreConfig()
	}

	sizeBytes, err := humanize.ParseBytes(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("invalid cache size %q: %w", cfg.Size, err)
	}

	rcfg := &ristretto.Config[uint64, Entry]{
		NumCounters:        defaultNumCounters,
		MaxCost:            int64(sizeBytes), // #nosec G115
		BufferItems:        defaultBufferItems,
		Metrics:            true,
		IgnoreInternalCost: true,
	}
	if onEvict != nil {
		rcfg.OnEvict = func(item *ristretto.Item[Entry]) {
			onEvict(BlockKey(item.Key))
		}
	}

	cache, err := ristretto.NewCache(rcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ristretto cache: %w", err)
	}

	return &CostStore{data: cache}, nil
}

// MaxCost returns the byte budget.
func (c *CostStore) MaxCost() int64 {
	return c.data.MaxCost()
}

// Get reports whether key is cached.
func (c *CostStore) Get(_ context.Context, key BlockKey) (bool, error) {
	_, ok := c.data.Get(uint64(key))
	return ok, nil
}

// Add offers key to the cache at a cost of its size in bytes and waits for
// the write to be applied.
func (c *CostStore) Add(_ context.Context, key BlockKey, entry Entry) error {
	c.data.Set(uint64(key), entry, int64(entry.Size))
	c.data.Wait()
	return nil
}

// Len returns the number of cached blocks.
func (c *CostStore) Len(_ context.Context) (int, error) {
	m := c.data.Metrics
	return int(m.KeysAdded() - m.KeysEvicted()), nil // #nosec G115
}

// Close stops the cache's goroutines.
func (c *CostStore) Close() error {
	c.data.Close()
	return nil
}
