package engine

import "errors"

var (
	// ErrCacheMetricsUnavailable is returned when cache metrics are required
	// but the server response has no usage.prompt_tokens_details.
	ErrCacheMetricsUnavailable = errors.New("server did not report prompt cache metrics")

	// ErrUpstream is returned for a non-2xx response.
	ErrUpstream = errors.New("inference server error")

	// ErrEmptyResponse is returned when the response holds no choice.
	ErrEmptyResponse = errors.New("inference server returned no choices")

	// ErrNoModel is returned when no model name is configured.
	ErrNoModel = errors.New("model name is required")
)
