// Package prefixcache simulates a block-granular prefix cache.
//
// Prompts are cut into fixed-size byte blocks. Each block key hashes the
// parent key together with the block bytes, so a key identifies the whole
// prefix ending at that block, the way inference engines key their KV cache
// pages. A lookup walks the chain and stops at the first miss; the blocks
// before it are what a server could reuse.
//
// The cache itself is a Store: an LRU bounded by block count, a cost-aware
// ristretto cache bounded by bytes, or redis for a cache shared between runs.
package prefixcache
