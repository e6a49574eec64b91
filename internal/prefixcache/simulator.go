package prefixcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/nao1215/prefixdiff/internal/prompt"
)

// Simulator replays prompts through a Store and counts the reusable prefix
// blocks of each one.
type Simulator struct {
	store     Store
	backend   string
	blockSize int
	initHash  uint64
	metrics   *Metrics
	logger    *slog.Logger
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithBlockSize sets the block size in bytes.
func WithBlockSize(n int) SimulatorOption {
	return func(s *Simulator) {
		s.blockSize = n
	}
}

// WithInitHash sets the parent key of the first block. See InitHash.
func WithInitHash(h uint64) SimulatorOption {
	return func(s *Simulator) {
		s.initHash = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SimulatorOption {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithMetrics uses m instead of a fresh Metrics. Pass the same Metrics whose
// Evictions counter the store's OnEvict callback increments.
func WithMetrics(m *Metrics) SimulatorOption {
	return func(s *Simulator) {
		s.metrics = m
	}
}

// NewSimulator creates a Simulator over store. backend is only recorded in
// the report.
func NewSimulator(store Store, backend string, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		store:     store,
		backend:   backend,
		blockSize: DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Metrics returns the simulator's counters.
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}

// Feed looks up the prompt's leading blocks, then admits all of its blocks.
func (s *Simulator) Feed(ctx context.Context, name string, data []byte) (model.PromptHits, error) {
	keys := BlockKeys(data, s.blockSize, s.initHash)
	hits := model.PromptHits{
		Name:   name,
		Bytes:  len(data),
		Blocks: len(keys),
	}

	start := time.Now()
	for _, k := range keys {
		ok, err := s.store.Get(ctx, k)
		if err != nil {
			return hits, fmt.Errorf("lookup failed for %s: %w", name, err)
		}
		if !ok {
			break
		}
		hits.HitBlocks++
	}
	s.metrics.LookupLatency.Observe(time.Since(start).Seconds())
	s.metrics.Lookups.Inc()
	s.metrics.Hits.Add(float64(hits.HitBlocks))
	hits.HitBytes = hits.HitBlocks * s.blockSize

	now := time.Now()
	for _, k := range keys {
		if err := s.store.Add(ctx, k, Entry{Size: s.blockSize, AddedAt: now}); err != nil {
			return hits, fmt.Errorf("admission failed for %s: %w", name, err)
		}
	}
	s.metrics.Admissions.Add(float64(len(keys)))

	s.logger.Debug("prompt replayed",
		"name", name,
		"blocks", hits.Blocks,
		"hit_blocks", hits.HitBlocks,
	)

	return hits, nil
}

// Run feeds sources in order and returns the per prompt accounting with
// totals and a snapshot of the counters.
func (s *Simulator) Run(ctx context.Context, sources []prompt.Source) (*model.SimulationReport, error) {
	report := &model.SimulationReport{
		Backend:   s.backend,
		BlockSize: s.blockSize,
		Prompts:   make([]model.PromptHits, 0, len(sources)),
		Totals:    model.PromptHits{Name: "total"},
	}

	for _, src := range sources {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		hits, err := s.Feed(ctx, src.Name, []byte(src.Text))
		if err != nil {
			return nil, err
		}
		report.Prompts = append(report.Prompts, hits)
		report.Totals.Bytes += hits.Bytes
		report.Totals.Blocks += hits.Blocks
		report.Totals.HitBlocks += hits.HitBlocks
		report.Totals.HitBytes += hits.HitBytes
	}

	report.Metrics = s.metrics.Snapshot()
	return report, nil
}

// Open creates the store selected by cfg and a Simulator over it whose
// Evictions counter follows the store's evictions.
func Open(ctx context.Context, cfg StoreConfig, opts ...SimulatorOption) (*Simulator, error) {
	m := NewMetrics()
	onEvict := cfg.OnEvict
	cfg.OnEvict = func(k BlockKey) {
		m.Evictions.Inc()
		if onEvict != nil {
			onEvict(k)
		}
	}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendMemory
	}
	return NewSimulator(store, backend, append([]SimulatorOption{WithMetrics(m)}, opts...)...), nil
}

// Close closes the underlying store.
func (s *Simulator) Close() error {
	return s.store.Close()
}
