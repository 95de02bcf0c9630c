package provider

import (
	"context"
	"time"

	"github.com/arenalab/promptarena/internal/registry"
)

// systemPrompt is sent by every chat-style provider so responses are
// comparable across models.
const systemPrompt = "You are a helpful, accurate, and concise assistant. Provide clear, factual responses."

// defaultMaxTokens caps completion length when the caller does not set one.
const defaultMaxTokens = 1024

// Options configures a single provider call.
type Options struct {
	// MaxTokens caps output length. Zero means the adapter default.
	MaxTokens int `json:"max_tokens"`
	// Temperature is sampling randomness in [0,2].
	Temperature float64 `json:"temperature"`
	// Timeout is the per-call deadline, enforced client-side even if the
	// provider's own timeout is longer.
	Timeout time.Duration `json:"timeout"`
}

// Request is the generic prompt request handed to an adapter.
type Request struct {
	Model   registry.Descriptor
	Prompt  string
	Options Options
}

// Response is a successful provider call translated back into generic form.
// Cost is always computed from token counts and the descriptor's rates,
// never taken from the provider.
type Response struct {
	Provider     string
	ModelID      string
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Cost         float64
	Latency      time.Duration
	FinishReason string
}

// Invoker is the interface every provider adapter implements. Invoke
// returns either a Response or a *Error classifying the failure; it never
// retries (retry policy belongs to the orchestrator).
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, req Request) (*Response, error)
	IsAvailable(ctx context.Context) error
}

// callContext derives the per-call context from the request options,
// bounded by whatever deadline the caller already set.
func callContext(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, opts.Timeout)
}

// maxTokens resolves the effective completion cap.
func maxTokens(opts Options) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return defaultMaxTokens
}

// approxTokens estimates a token count for providers that omit usage data.
// Roughly four characters per token.
func approxTokens(text string) int {
	return len(text) / 4
}
