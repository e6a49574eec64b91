// Package config provides configuration structures and utilities for prefixdiff.
// It defines the defaults of every command (analysis, restructuring, cache
// simulation and benchmarking) and loads overrides from an optional YAML file.
package config
