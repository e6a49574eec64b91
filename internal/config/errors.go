package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.ValidateFor() and can be matched with
// errors.Is() by callers that want to react to a specific problem.
var (
	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidPreviewLimit is returned when the preview limit is negative.
	ErrInvalidPreviewLimit = errors.New("invalid preview limit: must be non-negative")

	// ErrInvalidContextSize is returned when the divergence context size is negative.
	ErrInvalidContextSize = errors.New("invalid context size: must be non-negative")

	// ErrInvalidConcurrency is returned when the restructure concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBlockSize is returned when the cache block size is not positive.
	ErrInvalidBlockSize = errors.New("invalid block size: must be positive")

	// ErrInvalidCacheBlocks is returned when the memory cache capacity is not positive.
	ErrInvalidCacheBlocks = errors.New("invalid cache capacity: must be positive")

	// ErrInvalidTimeout is returned when the inference request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxTokens is returned when max_tokens is not positive.
	ErrInvalidMaxTokens = errors.New("invalid max tokens: must be positive")

	// ErrInvalidRepeat is returned when the benchmark repeat count is not positive.
	ErrInvalidRepeat = errors.New("invalid repeat count: must be positive")

	// ErrInvalidLogFormat is returned when the log format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrUnknownSection is returned by ValidateFor for a section no command uses.
	ErrUnknownSection = errors.New("unknown configuration section")
)
