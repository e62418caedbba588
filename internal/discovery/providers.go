package discovery

import "sort"

// Model describes one model offered by a provider
type Model struct {
	Key             string   // catalog key, e.g. "gpt-4o"
	ID              string   // identifier sent to the vendor
	Name            string   // display name
	ContextWindow   int      // tokens
	CostPer1KInput  float64  // USD
	CostPer1KOutput float64  // USD
	BestFor         []string // task tags
}

// Provider describes an AI vendor and its OpenAI-compatible endpoint
type Provider struct {
	Name        string
	DisplayName string
	BaseURL     string
	Models      []Model // in preference order
}

// Provider names
const (
	OpenRouter = "openrouter"
	OpenAI     = "openai"
	Anthropic  = "anthropic"
	Google     = "google"
)

// ProviderOrder is the order in which providers are tried when several are configured
var ProviderOrder = []string{OpenRouter, OpenAI, Anthropic, Google}

// Providers is the catalog of supported vendors
var Providers = map[string]Provider{
	OpenRouter: {
		Name:        OpenRouter,
		DisplayName: "OpenRouter",
		BaseURL:     "https://openrouter.ai/api/v1",
		Models: []Model{
			{"claude-3-5-sonnet", "anthropic/claude-3.5-sonnet", "Claude 3.5 Sonnet", 200000, 0.003, 0.015,
				[]string{"content_generation", "analysis", "long_form"}},
			{"claude-3-sonnet", "anthropic/claude-3-sonnet", "Claude 3 Sonnet", 200000, 0.003, 0.015,
				[]string{"content_generation", "analysis"}},
			{"gpt-4-turbo", "openai/gpt-4-turbo", "GPT-4 Turbo", 128000, 0.01, 0.03,
				[]string{"complex_reasoning", "long_content"}},
			{"gpt-4o", "openai/gpt-4o", "GPT-4o", 128000, 0.005, 0.015,
				[]string{"general_purpose", "fast"}},
			{"gpt-4o-mini", "openai/gpt-4o-mini", "GPT-4o Mini", 128000, 0.00015, 0.0006,
				[]string{"quick_tasks", "cost_effective"}},
			{"gemini-pro", "google/gemini-pro", "Gemini Pro", 32000, 0.00025, 0.0005,
				[]string{"quick_tasks", "cost_effective"}},
			{"gemini-1.5-pro", "google/gemini-pro-1.5", "Gemini 1.5 Pro", 1000000, 0.00125, 0.005,
				[]string{"very_long_context", "analysis"}},
		},
	},
	OpenAI: {
		Name:        OpenAI,
		DisplayName: "OpenAI Direct",
		BaseURL:     "https://api.openai.com/v1",
		Models: []Model{
			{"gpt-4-turbo", "gpt-4-turbo", "GPT-4 Turbo", 128000, 0.01, 0.03,
				[]string{"complex_reasoning", "long_content"}},
			{"gpt-4o", "gpt-4o", "GPT-4o", 128000, 0.005, 0.015,
				[]string{"general_purpose"}},
			{"gpt-4o-mini", "gpt-4o-mini", "GPT-4o Mini", 128000, 0.00015, 0.0006,
				[]string{"quick_tasks", "cost_effective"}},
		},
	},
	Anthropic: {
		Name:        Anthropic,
		DisplayName: "Anthropic Direct",
		BaseURL:     "https://api.anthropic.com/v1",
		Models: []Model{
			{"claude-3-5-sonnet", "claude-3-5-sonnet-20241022", "Claude 3.5 Sonnet", 200000, 0.003, 0.015,
				[]string{"detailed_analysis", "long_form", "content_generation"}},
			{"claude-3-haiku", "claude-3-haiku-20240307", "Claude 3 Haiku", 200000, 0.00025, 0.00125,
				[]string{"quick_tasks", "cost_effective"}},
		},
	},
	Google: {
		Name:        Google,
		DisplayName: "Google AI (Gemini)",
		BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai",
		Models: []Model{
			{"gemini-pro", "gemini-pro", "Gemini Pro", 32000, 0.00025, 0.0005,
				[]string{"quick_tasks"}},
			{"gemini-1.5-pro", "gemini-1.5-pro", "Gemini 1.5 Pro", 1000000, 0.00125, 0.005,
				[]string{"very_long_context"}},
		},
	},
}

// LookupProvider returns a provider by name
func LookupProvider(name string) (Provider, bool) {
	p, ok := Providers[name]
	return p, ok
}

// LookupModel returns a provider's model by catalog key
func LookupModel(provider, key string) (Model, bool) {
	p, ok := Providers[provider]
	if !ok {
		return Model{}, false
	}
	for _, m := range p.Models {
		if m.Key == key {
			return m, true
		}
	}
	return Model{}, false
}

// ModelsFor returns a provider's models, or nil for an unknown provider
func ModelsFor(provider string) []Model {
	return Providers[provider].Models
}

// BestModelForTask returns the first model tagged with task, searching the
// available providers in the order given
func BestModelForTask(task string, available []string) (string, Model, bool) {
	for _, name := range available {
		p, ok := Providers[name]
		if !ok {
			continue
		}
		for _, m := range p.Models {
			for _, tag := range m.BestFor {
				if tag == task {
					return name, m, true
				}
			}
		}
	}
	return "", Model{}, false
}

// Recommendation is a default model choice for a use case
type Recommendation struct {
	Provider    string
	Model       string // catalog key
	Temperature float32
	Reason      string
}

// RecommendedModels maps use cases to their default model
var RecommendedModels = map[string]Recommendation{
	"entity_discovery": {OpenRouter, "claude-3-5-sonnet", 0.3, "Best for factual entity extraction"},
	"content_brief":    {OpenRouter, "gpt-4-turbo", 0.5, "Good balance of creativity and structure"},
	"query_analysis":   {OpenRouter, "claude-3-sonnet", 0.2, "Precise analytical capabilities"},
	"quick_tasks":      {OpenRouter, "gpt-4o-mini", 0.5, "Fast and cost-effective"},
}

// UseCases returns the recommendation keys in sorted order
func UseCases() []string {
	keys := make([]string, 0, len(RecommendedModels))
	for k := range RecommendedModels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
