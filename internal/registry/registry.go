// Package registry holds the static catalog of selectable models: which
// provider serves each model id, what it costs per token, and how long a
// call to it is allowed to take.
package registry

import (
	"sort"
	"time"

	"github.com/arenalab/promptarena/internal"
)

// Provider names used to route a model id to its adapter.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderGroq      = "groq"
)

// Descriptor describes one selectable model.
type Descriptor struct {
	ID              string        `json:"id"`
	Provider        string        `json:"provider"`
	DisplayName     string        `json:"display_name"`
	InputCostPer1K  float64       `json:"input_cost_per_1k"`
	OutputCostPer1K float64       `json:"output_cost_per_1k"`
	DefaultTimeout  time.Duration `json:"default_timeout"`
	Enabled         bool          `json:"enabled"`
}

// Cost computes the deterministic call cost in USD from token counts and
// the descriptor's per-1K rates. Provider-reported cost is never used.
func (d Descriptor) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*d.InputCostPer1K +
		float64(outputTokens)/1000*d.OutputCostPer1K
}

// Registry is a pure lookup table from model id to Descriptor.
type Registry struct {
	models map[string]Descriptor
}

// defaultCatalog lists the models the comparison service knows about.
// Rates are USD per 1K tokens.
var defaultCatalog = []Descriptor{
	{ID: "gpt-4-turbo-preview", Provider: ProviderOpenAI, DisplayName: "GPT-4 Turbo",
		InputCostPer1K: 0.01, OutputCostPer1K: 0.03, DefaultTimeout: 60 * time.Second, Enabled: true},
	{ID: "gpt-3.5-turbo", Provider: ProviderOpenAI, DisplayName: "GPT-3.5 Turbo",
		InputCostPer1K: 0.0005, OutputCostPer1K: 0.0015, DefaultTimeout: 30 * time.Second, Enabled: true},
	{ID: "claude-3-opus-20240229", Provider: ProviderAnthropic, DisplayName: "Claude 3 Opus",
		InputCostPer1K: 0.015, OutputCostPer1K: 0.075, DefaultTimeout: 60 * time.Second, Enabled: true},
	{ID: "claude-3-sonnet-20240229", Provider: ProviderAnthropic, DisplayName: "Claude 3 Sonnet",
		InputCostPer1K: 0.003, OutputCostPer1K: 0.015, DefaultTimeout: 60 * time.Second, Enabled: true},
	{ID: "gemini-pro", Provider: ProviderGoogle, DisplayName: "Gemini Pro",
		InputCostPer1K: 0.000125, OutputCostPer1K: 0.000375, DefaultTimeout: 45 * time.Second, Enabled: true},
	{ID: "llama-3-70b", Provider: ProviderGroq, DisplayName: "Llama 3 70B",
		InputCostPer1K: 0.00059, OutputCostPer1K: 0.00079, DefaultTimeout: 30 * time.Second, Enabled: true},
	{ID: "mistral-large-latest", Provider: ProviderGroq, DisplayName: "Mistral Large",
		InputCostPer1K: 0.004, OutputCostPer1K: 0.012, DefaultTimeout: 30 * time.Second, Enabled: true},
}

// New returns a Registry with the default catalog.
func New() *Registry {
	return NewWith(defaultCatalog)
}

// NewWith builds a Registry from an explicit catalog.
func NewWith(catalog []Descriptor) *Registry {
	models := make(map[string]Descriptor, len(catalog))
	for _, d := range catalog {
		models[d.ID] = d
	}
	return &Registry{models: models}
}

// Resolve returns the Descriptor for a model id. Unknown and disabled ids
// fail with UnknownModelError so bad requests are rejected before any
// network call is attempted.
func (r *Registry) Resolve(modelID string) (Descriptor, error) {
	d, ok := r.models[modelID]
	if !ok || !d.Enabled {
		return Descriptor{}, &internal.UnknownModelError{ModelID: modelID}
	}
	return d, nil
}

// List returns all enabled descriptors ordered by model id.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.models))
	for _, d := range r.models {
		if d.Enabled {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
