package prefixcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryBlocks is the default capacity of the memory store.
const DefaultMemoryBlocks = 500000

// MemoryStoreConfig holds the configuration for the MemoryStore.
type MemoryStoreConfig struct {
	// Blocks is the maximum number of cached blocks.
	Blocks int `json:"blocks"`
}

// DefaultMemoryStoreConfig returns the default memory store configuration.
func DefaultMemoryStoreConfig() *MemoryStoreConfig {
	return &MemoryStoreConfig{Blocks: DefaultMemoryBlocks}
}

// MemoryStore is an in-process LRU store bounded by block count.
type MemoryStore struct {
	data *lru.Cache[BlockKey, Entry]
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates a MemoryStore. onEvict may be nil.
func NewMemoryStore(cfg *MemoryStoreConfig, onEvict func(BlockKey)) (*MemoryStore, error) {
	if cfg == nil {
		cfg = DefaultMemoryStoreConfig()
	}

	var evict func(BlockKey, Entry)
	if onEvict != nil {
		evict = func(k BlockKey, _ Entry) { onEvict(k) }
	}

	cache, err := lru.NewWithEvict[BlockKey, Entry](cfg.Blocks, evict)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize lru cache: %w", err)
	}

	return &MemoryStore{data: cache}, nil
}

// Get reports whether key is cached and marks it recently used.
func (m *MemoryStore) Get(_ context.Context, key BlockKey) (bool, error) {
	_, ok := m.data.Get(key)
	return ok, nil
}

// Add admits key, evicting the least recently used block when full.
func (m *MemoryStore) Add(_ context.Context, key BlockKey, entry Entry) error {
	m.data.Add(key, entry)
	return nil
}

// Len returns the number of cached blocks.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	return m.data.Len(), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
