package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "prefixdiff"

	// DefaultPreviewLimit is the number of common prefix characters printed.
	DefaultPreviewLimit = 500

	// DefaultContextSize is the number of characters printed on each side
	// of the first difference.
	DefaultContextSize = 100

	// DefaultSystemMarker and DefaultUserMarker delimit the ChatML system
	// section checked by the system message analysis.
	DefaultSystemMarker = "<|im_start|>system"
	DefaultUserMarker   = "<|im_start|>user"

	// DefaultLayout is the restructure output layout.
	DefaultLayout = "reorder"

	// DefaultConcurrency is the number of prompt files restructured at once.
	DefaultConcurrency = 8

	// DefaultBackend is the simulated prefix cache store.
	DefaultBackend = "memory"

	// DefaultBlockSize is the number of bytes per simulated cache block.
	DefaultBlockSize = 256

	// DefaultCacheBlocks is the capacity of the memory store in blocks.
	DefaultCacheBlocks = 500000

	// DefaultCacheSize is the byte budget of the cost-aware store.
	DefaultCacheSize = "2GiB"

	// DefaultRedisAddress is used by the redis store when none is configured.
	DefaultRedisAddress = "redis://127.0.0.1:6379"

	// DefaultKeyPrefix namespaces simulated blocks in redis.
	DefaultKeyPrefix = "prefixdiff:block:"

	// DefaultBaseURL points at a local OpenAI-compatible server (vLLM default port).
	DefaultBaseURL = "http://127.0.0.1:8000/v1"

	// DefaultAPIKeyEnv is the environment variable holding the bearer token.
	DefaultAPIKeyEnv = "OPENAI_API_KEY"

	// DefaultMaxTokens is the completion length requested per prompt.
	DefaultMaxTokens = 64

	// DefaultTimeout bounds a single inference request.
	DefaultTimeout = 120 * time.Second

	// LogFormatText and LogFormatJSON are the accepted log formats.
	LogFormatText = "text"
	LogFormatJSON = "json"

	// DefaultTemplate wraps each prompt before it is sent.
	DefaultTemplate = "user: {prompt}\nassistant: "
)

// Config holds all configuration options for prefixdiff.
// It is populated from defaults, then the optional config file, then CLI
// flags, and passed to the commands explicitly.
type Config struct {
	// Analyze configures the root prefix comparison.
	Analyze AnalyzeConfig `yaml:"analyze"`

	// Restructure configures the prompt restructuring command.
	Restructure RestructureConfig `yaml:"restructure"`

	// Simulate configures the prefix cache simulation.
	Simulate SimulateConfig `yaml:"simulate"`

	// Bench configures the inference benchmark.
	Bench BenchConfig `yaml:"bench"`

	// DBDir is the directory holding the benchmark history database.
	// Defaults to the XDG data directory.
	DBDir string `yaml:"db_dir,omitempty"`

	// Verbose enables debug logging. CLI only.
	Verbose bool `yaml:"-"`

	// LogFormat selects text or JSON log lines on stderr. CLI only.
	LogFormat string `yaml:"-"`

	// JSONReport and MarkdownReport select the report format. CLI only,
	// mutually exclusive.
	JSONReport     bool `yaml:"-"`
	MarkdownReport bool `yaml:"-"`

	// ReportFile redirects the report from stdout to a file. CLI only.
	ReportFile string `yaml:"-"`
}

// AnalyzeConfig holds the prefix comparison settings.
type AnalyzeConfig struct {
	// PreviewLimit is the number of prefix characters shown in the preview.
	PreviewLimit int `yaml:"preview_limit"`

	// ContextSize is the number of characters shown around the divergence.
	ContextSize int `yaml:"context_size"`

	// UntilMarker bounds the comparison to the text before this marker.
	// Empty compares the whole files.
	UntilMarker string `yaml:"until_marker,omitempty"`

	// SystemMarker and UserMarker delimit the section compared by the
	// system message analysis.
	SystemMarker string `yaml:"system_marker"`
	UserMarker   string `yaml:"user_marker"`
}

// RestructureConfig holds the prompt restructuring settings.
type RestructureConfig struct {
	// Layout is "reorder" or "chatml".
	Layout string `yaml:"layout"`

	// Concurrency is the number of files processed at the same time.
	Concurrency int `yaml:"concurrency"`

	// Markers overrides the section markers. Empty fields keep the defaults.
	Markers SectionMarkers `yaml:"markers,omitempty"`
}

// SectionMarkers are the literal strings that locate prompt sections.
type SectionMarkers struct {
	SystemEnd      string `yaml:"system_end,omitempty"`
	Requirement    string `yaml:"requirement,omitempty"`
	DeviceOutput   string `yaml:"device_output,omitempty"`
	ExpectedOutput string `yaml:"expected_output,omitempty"`
}

// SimulateConfig holds the prefix cache simulation settings.
type SimulateConfig struct {
	// Backend is "memory", "cost" or "redis".
	Backend string `yaml:"backend"`

	// BlockSize is the number of bytes per block.
	BlockSize int `yaml:"block_size"`

	// CacheBlocks is the capacity of the memory backend in blocks.
	CacheBlocks int `yaml:"cache_blocks"`

	// CacheSize is the byte budget of the cost backend, e.g. "512MiB".
	CacheSize string `yaml:"cache_size"`

	// RedisAddress is the redis URL of the redis backend.
	RedisAddress string `yaml:"redis_address"`

	// KeyPrefix namespaces the redis keys.
	KeyPrefix string `yaml:"key_prefix"`

	// TTL expires redis blocks. Zero keeps them until evicted by redis.
	TTL time.Duration `yaml:"ttl,omitempty"`

	// HashSeed salts the block keys. Runs with different seeds sharing a
	// redis store never hit each other's blocks.
	HashSeed string `yaml:"hash_seed,omitempty"`
}

// BenchConfig holds the inference benchmark settings.
type BenchConfig struct {
	// BaseURL is the OpenAI-compatible API root, e.g. http://host:8000/v1.
	BaseURL string `yaml:"base_url"`

	// Model is the served model name.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// MaxTokens is the generation limit per request.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature.
	Temperature float64 `yaml:"temperature"`

	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`

	// Template wraps each prompt; "{prompt}" is replaced by the prompt text.
	Template string `yaml:"template"`

	// SystemPromptFile is prepended to every prompt when set.
	SystemPromptFile string `yaml:"system_prompt_file,omitempty"`

	// RequireCacheMetrics fails the run when the server does not report
	// cached prompt tokens.
	RequireCacheMetrics bool `yaml:"require_cache_metrics"`

	// Repeat is the number of passes over the prompt list.
	Repeat int `yaml:"repeat"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		LogFormat: LogFormatText,
		Analyze: AnalyzeConfig{
			PreviewLimit: DefaultPreviewLimit,
			ContextSize:  DefaultContextSize,
			SystemMarker: DefaultSystemMarker,
			UserMarker:   DefaultUserMarker,
		},
		Restructure: RestructureConfig{
			Layout:      DefaultLayout,
			Concurrency: DefaultConcurrency,
		},
		Simulate: SimulateConfig{
			Backend:      DefaultBackend,
			BlockSize:    DefaultBlockSize,
			CacheBlocks:  DefaultCacheBlocks,
			CacheSize:    DefaultCacheSize,
			RedisAddress: DefaultRedisAddress,
			KeyPrefix:    DefaultKeyPrefix,
		},
		Bench: BenchConfig{
			BaseURL:   DefaultBaseURL,
			APIKeyEnv: DefaultAPIKeyEnv,
			MaxTokens: DefaultMaxTokens,
			Timeout:   DefaultTimeout,
			Template:  DefaultTemplate,
			Repeat:    1,
		},
		DBDir: XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for prefixdiff.
// On Linux: ~/.local/share/prefixdiff
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for prefixdiff.
// On Linux: ~/.config/prefixdiff
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Section names the part of the configuration a command reads.
type Section string

// Configuration sections, one per command.
const (
	SectionAnalyze     Section = "analyze"
	SectionRestructure Section = "restructure"
	SectionSimulate    Section = "simulate"
	SectionBench       Section = "bench"
)

// Validate checks every section of the configuration.
// It returns the first problem found as one of the package sentinel errors.
func (c *Config) Validate() error {
	for _, s := range []Section{SectionAnalyze, SectionRestructure, SectionSimulate, SectionBench} {
		if err := c.ValidateFor(s); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFor checks the report flags and the given section only, so a bad
// value in one command's section never blocks another command.
func (c *Config) ValidateFor(section Section) error {
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}

	switch section {
	case SectionAnalyze:
		return c.Analyze.validate()
	case SectionRestructure:
		return c.Restructure.validate()
	case SectionSimulate:
		return c.Simulate.validate()
	case SectionBench:
		return c.Bench.validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
}

func (a AnalyzeConfig) validate() error {
	if a.PreviewLimit < 0 {
		return ErrInvalidPreviewLimit
	}
	if a.ContextSize < 0 {
		return ErrInvalidContextSize
	}
	return nil
}

func (r RestructureConfig) validate() error {
	if r.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

func (s SimulateConfig) validate() error {
	if s.BlockSize <= 0 {
		return ErrInvalidBlockSize
	}
	if s.CacheBlocks <= 0 {
		return ErrInvalidCacheBlocks
	}
	return nil
}

func (b BenchConfig) validate() error {
	if b.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if b.MaxTokens <= 0 {
		return ErrInvalidMaxTokens
	}
	if b.Repeat <= 0 {
		return ErrInvalidRepeat
	}
	return nil
}
