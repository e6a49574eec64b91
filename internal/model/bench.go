package model

import "time"

// BenchResult is the measurement of one inference request.
type BenchResult struct {
	// Name identifies the prompt source (file name or list index).
	Name string `json:"name"`

	// Prompt is the prompt as sent, after templating.
	Prompt string `json:"prompt"`

	// Response is the generated text.
	Response string `json:"response"`

	// TimeMs is the wall time of the request in milliseconds.
	TimeMs float64 `json:"time_ms"`

	// TokensProcessed is the prompt token count reported by the server.
	TokensProcessed int `json:"tokens_processed"`

	// TokensGenerated is the completion token count reported by the server.
	TokensGenerated int `json:"tokens_generated"`

	// CachedTokens is the number of prompt tokens the server reports as
	// served from its prefix cache. Nil when the server did not report it.
	CachedTokens *int `json:"cached_tokens,omitempty"`
}

// BenchRun is a complete benchmark run with aggregated statistics.
type BenchRun struct {
	// ID is the history database identifier. Zero until stored.
	ID int64 `json:"id,omitempty"`

	// Model is the model name requested from the server.
	Model string `json:"model"`

	// BaseURL is the inference server the run targeted.
	BaseURL string `json:"base_url"`

	// StartedAt is when the first request was sent.
	StartedAt time.Time `json:"started_at"`

	// Results holds one entry per request in send order.
	Results []BenchResult `json:"results"`

	MeanTimeMs          float64 `json:"mean_time_ms"`
	MeanTokensProcessed float64 `json:"mean_tokens_processed"`
	MeanTokensGenerated float64 `json:"mean_tokens_generated"`

	// MeanCachedTokens is averaged over the results that reported it.
	MeanCachedTokens float64 `json:"mean_cached_tokens"`

	// TotalPrompts is len(Results).
	TotalPrompts int `json:"total_prompts"`
}

// Summarize fills the mean fields and TotalPrompts from Results.
func (r *BenchRun) Summarize() {
	r.TotalPrompts = len(r.Results)
	r.MeanTimeMs, r.MeanTokensProcessed, r.MeanTokensGenerated, r.MeanCachedTokens = 0, 0, 0, 0
	if r.TotalPrompts == 0 {
		return
	}

	var timeSum, processedSum, generatedSum, cachedSum float64
	var cachedCount int
	for _, res := range r.Results {
		timeSum += res.TimeMs
		processedSum += float64(res.TokensProcessed)
		generatedSum += float64(res.TokensGenerated)
		if res.CachedTokens != nil {
			cachedSum += float64(*res.CachedTokens)
			cachedCount++
		}
	}

	n := float64(r.TotalPrompts)
	r.MeanTimeMs = timeSum / n
	r.MeanTokensProcessed = processedSum / n
	r.MeanTokensGenerated = generatedSum / n
	if cachedCount > 0 {
		r.MeanCachedTokens = cachedSum / float64(cachedCount)
	}
}
