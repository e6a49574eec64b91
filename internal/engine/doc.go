// Package engine talks to an OpenAI-compatible inference server and
// benchmarks it.
//
// The Client posts to /v1/completions and reads the token usage, including
// usage.prompt_tokens_details.cached_tokens, which vLLM reports when prefix
// caching is enabled. The Runner sends a list of prompts through an Engine
// and aggregates the timings into a model.BenchRun.
package engine
