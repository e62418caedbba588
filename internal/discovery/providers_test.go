package discovery

import "testing"

func TestLookupModel(t *testing.T) {
	tests := []struct {
		provider, key string
		wantID        string
		ok            bool
	}{
		{OpenRouter, "claude-3-5-sonnet", "anthropic/claude-3.5-sonnet", true},
		{Anthropic, "claude-3-haiku", "claude-3-haiku-20240307", true},
		{OpenAI, "claude-3-haiku", "", false},
		{"unknown", "gpt-4o", "", false},
	}
	for _, tt := range tests {
		m, ok := LookupModel(tt.provider, tt.key)
		if ok != tt.ok || m.ID != tt.wantID {
			t.Errorf("LookupModel(%s, %s) = (%q, %v), want (%q, %v)", tt.provider, tt.key, m.ID, ok, tt.wantID, tt.ok)
		}
	}
}

func TestBestModelForTask(t *testing.T) {
	provider, m, ok := BestModelForTask("quick_tasks", []string{"unknown", Anthropic, OpenRouter})
	if !ok || provider != Anthropic || m.Key != "claude-3-haiku" {
		t.Errorf("Expected anthropic claude-3-haiku, got %s %s %v", provider, m.Key, ok)
	}

	if _, _, ok := BestModelForTask("time_travel", ProviderOrder); ok {
		t.Error("Unknown task should find nothing")
	}
}

func TestCatalogConsistency(t *testing.T) {
	for _, name := range ProviderOrder {
		p, ok := Providers[name]
		if !ok || p.Name != name || len(p.Models) == 0 {
			t.Errorf("Provider %s is missing or empty", name)
		}
		if len(ModelsFor(name)) != len(p.Models) {
			t.Errorf("ModelsFor(%s) mismatch", name)
		}
	}
	for _, useCase := range UseCases() {
		rec := RecommendedModels[useCase]
		if _, ok := LookupModel(rec.Provider, rec.Model); !ok {
			t.Errorf("Recommendation %s points at unknown model %s/%s", useCase, rec.Provider, rec.Model)
		}
	}
	if ModelsFor("unknown") != nil {
		t.Error("Unknown provider should have no models")
	}
}
