package prefixcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nao1215/prefixdiff/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sources := []prompt.Source{
		{Name: "first", Text: "AAAABBBBCC"},
		{Name: "second", Text: "AAAABBBBDD"},
		{Name: "third", Text: "AAAAXXXX"},
		{Name: "fourth", Text: "ZZZZBBBB"},
	}

	run := func(t *testing.T, cfg StoreConfig) {
		t.Helper()
		sim, err := Open(ctx, cfg, WithBlockSize(4))
		require.NoError(t, err)
		t.Cleanup(func() { _ = sim.Close() })

		report, err := sim.Run(ctx, sources)
		require.NoError(t, err)

		require.Len(t, report.Prompts, 4)
		assert.Equal(t, 4, report.BlockSize)
		assert.Equal(t, []int{0, 2, 1, 0}, []int{
			report.Prompts[0].HitBlocks,
			report.Prompts[1].HitBlocks,
			report.Prompts[2].HitBlocks,
			report.Prompts[3].HitBlocks,
		})
		assert.Equal(t, 8, report.Prompts[1].HitBytes)
		assert.Equal(t, 3, report.Totals.HitBlocks)
		assert.Equal(t, 12, report.Totals.HitBytes)
		assert.Equal(t, 36, report.Totals.Bytes)
		assert.Equal(t, 8, report.Totals.Blocks)

		assert.InDelta(t, 4, report.Metrics.Lookups, 0)
		assert.InDelta(t, 3, report.Metrics.Hits, 0)
		assert.InDelta(t, 8, report.Metrics.Admissions, 0)
	}

	t.Run("memory backend", func(t *testing.T) {
		t.Parallel()
		run(t, StoreConfig{Backend: BackendMemory})
	})

	t.Run("cost backend", func(t *testing.T) {
		t.Parallel()
		run(t, StoreConfig{Backend: BackendCost, Cost: &CostStoreConfig{Size: "1MiB"}})
	})

	t.Run("redis backend", func(t *testing.T) {
		t.Parallel()
		server, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(server.Close)
		run(t, StoreConfig{Backend: BackendRedis, Redis: &RedisStoreConfig{Address: server.Addr()}})
	})
}

func TestSimulatorEvictions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sim, err := Open(ctx, StoreConfig{Memory: &MemoryStoreConfig{Blocks: 1}}, WithBlockSize(4))
	require.NoError(t, err)

	report, err := sim.Run(ctx, []prompt.Source{
		{Name: "a", Text: "AAAA"},
		{Name: "b", Text: "BBBB"},
		{Name: "a again", Text: "AAAA"},
	})
	require.NoError(t, err)

	assert.Equal(t, "memory", report.Backend)
	assert.Zero(t, report.Totals.HitBlocks)
	assert.InDelta(t, 2, report.Metrics.Evictions, 0)
}

func TestSimulatorInitHash(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewMemoryStore(nil, nil)
	require.NoError(t, err)

	seedA, err := InitHash("a")
	require.NoError(t, err)
	seedB, err := InitHash("b")
	require.NoError(t, err)

	_, err = NewSimulator(store, BackendMemory, WithBlockSize(4), WithInitHash(seedA)).Feed(ctx, "p", []byte("AAAA"))
	require.NoError(t, err)

	hits, err := NewSimulator(store, BackendMemory, WithBlockSize(4), WithInitHash(seedB)).Feed(ctx, "p", []byte("AAAA"))
	require.NoError(t, err)
	assert.Zero(t, hits.HitBlocks)

	hits, err = NewSimulator(store, BackendMemory, WithBlockSize(4), WithInitHash(seedA)).Feed(ctx, "p", []byte("AAAA"))
	require.NoError(t, err)
	assert.Equal(t, 1, hits.HitBlocks)
}

func TestSimulatorCanceledContext(t *testing.T) {
	t.Parallel()

	sim, err := Open(context.Background(), StoreConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sim.Run(ctx, []prompt.Source{{Name: "a", Text: "AAAA"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetricsWriteTextfile(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.Lookups.Inc()

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))
	assert.FileExists(t, path)
	assert.InDelta(t, 1, m.Snapshot().Lookups, 0)
}
