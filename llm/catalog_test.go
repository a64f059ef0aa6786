package llm

import "testing"

func TestGetModelInfo(t *testing.T) {
	info := GetModelInfo("claude-opus-4-6")
	if info == nil {
		t.Fatal("expected catalog entry for claude-opus-4-6")
	}
	if info.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %q", info.Provider)
	}
}

func TestGetModelInfoAlias(t *testing.T) {
	info := GetModelInfo("sonnet")
	if info == nil {
		t.Fatal("expected catalog entry for alias sonnet")
	}
	if info.ID != "claude-sonnet-4-5" {
		t.Errorf("expected alias to resolve to claude-sonnet-4-5, got %q", info.ID)
	}
}

func TestGetModelInfoUnknown(t *testing.T) {
	if info := GetModelInfo("no-such-model"); info != nil {
		t.Errorf("expected nil for unknown model, got %+v", info)
	}
}

func TestListModelsByProvider(t *testing.T) {
	openai := ListModels("openai")
	if len(openai) == 0 {
		t.Fatal("expected at least one openai model")
	}
	for _, m := range openai {
		if m.Provider != "openai" {
			t.Errorf("expected only openai models, got %q", m.Provider)
		}
	}

	all := ListModels("")
	if len(all) != len(Models) {
		t.Errorf("expected %d models, got %d", len(Models), len(all))
	}
}

func TestDefaultModel(t *testing.T) {
	m := DefaultModel("anthropic")
	if m == nil {
		t.Fatal("expected a default anthropic model")
	}
	if m.Provider != "anthropic" {
		t.Errorf("expected anthropic model, got %q", m.Provider)
	}
	if DefaultModel("no-such-provider") != nil {
		t.Error("expected nil for unknown provider")
	}
}
