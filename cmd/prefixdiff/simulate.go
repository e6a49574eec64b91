package main

import (
	"fmt"

	"github.com/nao1215/prefixdiff/internal/config"
	"github.com/nao1215/prefixdiff/internal/prefixcache"
	"github.com/nao1215/prefixdiff/internal/prompt"
	"github.com/spf13/cobra"
)

// NewSimulateCmd creates the simulate command.
func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <prompt>...",
		Short: "Replay prompts through a simulated prefix cache",
		Long: `Simulate feeds prompts, in order, through a block-granular prefix cache and
reports how many leading blocks of each prompt were already cached.

Each argument is a prompt file, a directory (its .txt files in name order) or
a JSON file of the form {"prompts": ["...", "..."]}.

Backends:
  memory  LRU bounded by --cache-blocks
  cost    cost-aware cache bounded by --cache-size bytes
  redis   shared cache at --redis-address, optionally expiring after --ttl

Examples:
  # Measure reuse across a directory of prompts
  prefixdiff simulate prompts/

  # Compare raw and restructured prompts with 128 byte blocks
  prefixdiff simulate --block-size 128 prompts_processed/

  # Share the cache between runs through redis
  prefixdiff simulate --backend redis --redis-address localhost:6379 prompts/`,
		Args: minimumArgs(1),
		RunE: runSimulateCmd,
	}

	cmd.Flags().StringP("backend", "b", config.DefaultBackend,
		"Cache backend (memory, cost or redis)")
	cmd.Flags().Int("block-size", config.DefaultBlockSize,
		"Bytes per cache block")
	cmd.Flags().Int("cache-blocks", config.DefaultCacheBlocks,
		"Capacity of the memory backend in blocks")
	cmd.Flags().String("cache-size", config.DefaultCacheSize,
		"Byte budget of the cost backend (e.g. 512MiB)")
	cmd.Flags().String("redis-address", config.DefaultRedisAddress,
		"Redis URL of the redis backend")
	cmd.Flags().String("key-prefix", config.DefaultKeyPrefix,
		"Key prefix of the redis backend")
	cmd.Flags().Duration("ttl", 0,
		"Expire redis blocks after this duration (0 keeps them)")
	cmd.Flags().String("hash-seed", "",
		"Salt for the block keys")
	cmd.Flags().String("metrics-file", "",
		"Write the cache counters to this file in Prometheus text format")
	addReportFlags(cmd)

	return cmd
}

// runSimulateCmd executes the simulate command.
func runSimulateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	s := &cfg.Simulate
	if err := firstError(
		flagString(cmd, "backend", &s.Backend),
		flagInt(cmd, "block-size", &s.BlockSize),
		flagInt(cmd, "cache-blocks", &s.CacheBlocks),
		flagString(cmd, "cache-size", &s.CacheSize),
		flagString(cmd, "redis-address", &s.RedisAddress),
		flagString(cmd, "key-prefix", &s.KeyPrefix),
		flagDuration(cmd, "ttl", &s.TTL),
		flagString(cmd, "hash-seed", &s.HashSeed),
	); err != nil {
		return err
	}

	if err := cfg.ValidateFor(config.SectionSimulate); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	metricsFile, err := cmd.Flags().GetString("metrics-file")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	sources, err := prompt.LoadSources(args)
	if err != nil {
		return err
	}

	initHash, err := prefixcache.InitHash(s.HashSeed)
	if err != nil {
		return err
	}

	sim, err := prefixcache.Open(ctx, storeConfig(s),
		prefixcache.WithBlockSize(s.BlockSize),
		prefixcache.WithInitHash(initHash),
		prefixcache.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer sim.Close()

	logger.Debug("starting simulation",
		"backend", s.Backend,
		"block_size", s.BlockSize,
		"prompts", len(sources),
	)

	result, err := sim.Run(ctx, sources)
	if err != nil {
		return err
	}

	if metricsFile != "" {
		if err := sim.Metrics().WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	return writeReport(cmd.OutOrStdout(), cfg, func(w reportWriter) error {
		_, err := w.WriteSimulation(result)
		return err
	})
}

// storeConfig maps the simulate settings onto a store configuration.
func storeConfig(s *config.SimulateConfig) prefixcache.StoreConfig {
	return prefixcache.StoreConfig{
		Backend: s.Backend,
		Memory:  &prefixcache.MemoryStoreConfig{Blocks: s.CacheBlocks},
		Cost:    &prefixcache.CostStoreConfig{Size: s.CacheSize},
		Redis: &prefixcache.RedisStoreConfig{
			Address:   s.RedisAddress,
			KeyPrefix: s.KeyPrefix,
			TTL:       s.TTL,
		},
	}
}
