package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	completionsPath = "/completions"
	defaultTimeout  = 120 * time.Second
	errorBodyLimit  = 4 << 10
)

// Completion is the outcome of one request.
type Completion struct {
	// Text is the generated text of the first choice.
	Text string

	// PromptTokens is usage.prompt_tokens.
	PromptTokens int

	// CompletionTokens is usage.completion_tokens.
	CompletionTokens int

	// CachedTokens is usage.prompt_tokens_details.cached_tokens, nil when
	// the server omitted prompt_tokens_details.
	CachedTokens *int
}

// Engine completes prompts.
type Engine interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:8000/v1.
	BaseURL string

	// Model is the served model name.
	Model string

	// APIKeyEnv names the environment variable holding the API key. An unset
	// or empty variable sends no Authorization header.
	APIKeyEnv string

	// MaxTokens limits the completion length.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// Timeout bounds each request. Zero uses 120s.
	Timeout time.Duration

	// RequireCacheMetrics makes Complete fail with ErrCacheMetricsUnavailable
	// when the server does not report cached tokens.
	RequireCacheMetrics bool
}

// Client is an Engine backed by the /v1/completions endpoint.
type Client struct {
	hc           *http.Client
	url          string
	apiKey       string
	model        string
	maxTokens    int
	temperature  float64
	requireCache bool
}

var _ Engine = &Client{}

// NewClient creates a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Model == "" {
		return nil, ErrNoModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var key string
	if opts.APIKeyEnv != "" {
		key = os.Getenv(opts.APIKeyEnv)
	}

	return &Client{
		hc:           &http.Client{Timeout: timeout},
		url:          strings.TrimRight(opts.BaseURL, "/") + completionsPath,
		apiKey:       key,
		model:        opts.Model,
		maxTokens:    opts.MaxTokens,
		temperature:  opts.Temperature,
		requireCache: opts.RequireCacheMetrics,
	}, nil
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Usage struct {
		PromptTokens        int `json:"prompt_tokens"`
		CompletionTokens    int `json:"completion_tokens"`
		PromptTokensDetails *struct {
			CachedTokens int `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
	} `json:"usage"`
}

// Complete sends prompt and returns the first choice with its usage.
func (c *Client) Complete(ctx context.Context, prompt string) (Completion, error) {
	body, err := json.Marshal(&completionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("request to %s failed: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return Completion{}, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Completion{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return Completion{}, ErrEmptyResponse
	}

	out := Completion{
		Text:             cr.Choices[0].Text,
		PromptTokens:     cr.Usage.PromptTokens,
		CompletionTokens: cr.Usage.CompletionTokens,
	}
	if d := cr.Usage.PromptTokensDetails; d != nil {
		cached := d.CachedTokens
		out.CachedTokens = &cached
	} else if c.requireCache {
		return Completion{}, ErrCacheMetricsUnavailable
	}

	return out, nil
}
