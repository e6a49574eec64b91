package model

// SimulationReport is the outcome of replaying a prompt sequence through a
// simulated block-granular prefix cache.
type SimulationReport struct {
	// Backend is the store the simulation ran against (memory, cost, redis).
	Backend string `json:"backend"`

	// BlockSize is the number of bytes per cache block.
	BlockSize int `json:"block_size"`

	// Prompts holds one entry per prompt in replay order.
	Prompts []PromptHits `json:"prompts"`

	// Totals aggregates Prompts.
	Totals PromptHits `json:"totals"`

	// Metrics is a snapshot of the simulator's counters after the run.
	Metrics CacheMetrics `json:"metrics"`
}

// PromptHits is the cache accounting of a single prompt.
type PromptHits struct {
	// Name identifies the prompt, usually its file name.
	Name string `json:"name"`

	// Bytes is the prompt length in bytes.
	Bytes int `json:"bytes"`

	// Blocks is the number of full blocks in the prompt.
	Blocks int `json:"blocks"`

	// HitBlocks is the number of leading blocks found in the cache.
	HitBlocks int `json:"hit_blocks"`

	// HitBytes is HitBlocks times the block size.
	HitBytes int `json:"hit_bytes"`
}

// HitRatio returns the share of the prompt bytes served from cache.
func (p PromptHits) HitRatio() float64 {
	if p.Bytes == 0 {
		return 0
	}
	return float64(p.HitBytes) / float64(p.Bytes)
}

// CacheMetrics is a point-in-time copy of the simulator counters.
type CacheMetrics struct {
	Lookups    float64 `json:"lookups"`
	Hits       float64 `json:"hits"`
	Admissions float64 `json:"admissions"`
	Evictions  float64 `json:"evictions"`
}
