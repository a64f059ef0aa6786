package engine

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/hearthkit/hearth/llm"
)

func TestDecodePlanStepStrictJSON(t *testing.T) {
	step, ok := decodePlanStep(`{"calls":[{"tool":"echo","args":{"text":"hi"}}],"final_text":""}`)
	if !ok {
		t.Fatal("expected successful decode")
	}
	if len(step.Calls) != 1 || step.Calls[0].Tool != "echo" {
		t.Errorf("unexpected step: %+v", step)
	}
	if !step.Calls[0].IsPassthrough() {
		t.Error("omitted passthrough should default to true")
	}
}

func TestDecodePlanStepExplicitPassthroughFalse(t *testing.T) {
	step, ok := decodePlanStep(`{"calls":[{"tool":"lookup","passthrough":false}]}`)
	if !ok {
		t.Fatal("expected successful decode")
	}
	if step.Calls[0].IsPassthrough() {
		t.Error("expected passthrough false")
	}
}

func TestDecodePlanStepProseWrapped(t *testing.T) {
	text := `Here is my plan:

{"calls":[{"tool":"search","args":{"query":"weather in {city}"}}]}

Let me know if that works.`
	step, ok := decodePlanStep(text)
	if !ok {
		t.Fatal("expected fallback extraction to succeed")
	}
	if len(step.Calls) != 1 || step.Calls[0].Tool != "search" {
		t.Errorf("unexpected step: %+v", step)
	}
	// Braces inside string literals must not confuse the extractor.
	if got := step.Calls[0].Args["query"]; got != "weather in {city}" {
		t.Errorf("unexpected query arg: %v", got)
	}
}

func TestDecodePlanStepCodeFenced(t *testing.T) {
	text := "```json\n{\"calls\":[],\"final_text\":\"done\"}\n```"
	step, ok := decodePlanStep(text)
	if !ok {
		t.Fatal("expected fenced decode to succeed")
	}
	if step.FinalText != "done" {
		t.Errorf("expected final text %q, got %q", "done", step.FinalText)
	}
}

func TestDecodePlanStepGarbage(t *testing.T) {
	if _, ok := decodePlanStep("I cannot produce a plan right now."); ok {
		t.Error("expected decode failure for prose with no JSON object")
	}
	if _, ok := decodePlanStep("{truncated"); ok {
		t.Error("expected decode failure for unbalanced JSON")
	}
}

func TestRenderReviewItems(t *testing.T) {
	items := []ExecutionResult{
		{Tool: "lookup", Args: map[string]any{"id": "42"}, Success: true, Output: "found it"},
		{Tool: "send", Args: map[string]any{}, Error: "unknown tool"},
	}
	rendered := renderReviewItems(items)
	if !strings.Contains(rendered, `1. lookup({"id":"42"}): found it`) {
		t.Errorf("unexpected rendering:\n%s", rendered)
	}
	if !strings.Contains(rendered, "2. send({}): ERROR: unknown tool") {
		t.Errorf("unexpected rendering:\n%s", rendered)
	}
}

func TestBuildMessages(t *testing.T) {
	p := &planner{log: slog.New(slog.DiscardHandler)}
	msgs := p.buildMessages(planContext{
		task:          "turn off the lights",
		conversation:  "user said good night",
		memory:        "bedroom lights are Hue",
		catalog:       "- lights: Control lights.\n",
		domainPrompts: []string{"You control smart home devices."},
		review: []ExecutionResult{
			{Tool: "lights", Success: true, Output: "ok"},
		},
	})

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	system := msgs[0].Text
	if !strings.Contains(system, "You control smart home devices.") {
		t.Error("expected domain prompt in system message")
	}
	if !strings.Contains(system, "- lights: Control lights.") {
		t.Error("expected tool catalog in system message")
	}
	user := msgs[1].Text
	for _, want := range []string{"turn off the lights", "good night", "Hue", "previous tool calls"} {
		if !strings.Contains(user, want) {
			t.Errorf("expected %q in user message:\n%s", want, user)
		}
	}
}

func TestPlanParseFailureIsTerminal(t *testing.T) {
	adapter := &scriptAdapter{texts: []string{"no plan today"}}
	p := &planner{
		client: llm.NewClient(llm.WithProvider("script", adapter)),
		model:  "test-model",
		retry:  llm.RetryPolicy{},
		log:    slog.New(slog.DiscardHandler),
	}

	step, err := p.plan(context.Background(), planContext{task: "anything", iteration: 1})
	if err != nil {
		t.Fatalf("parse failure must not be an error, got %v", err)
	}
	if len(step.Calls) != 0 || step.FinalText != "" {
		t.Errorf("expected empty step, got %+v", step)
	}
}

func TestPlanInfrastructureFailure(t *testing.T) {
	adapter := &scriptAdapter{err: &llm.AuthenticationError{ProviderError: llm.ProviderError{
		ClientError: llm.ClientError{Message: "bad key"},
		StatusCode:  401,
	}}}
	p := &planner{
		client: llm.NewClient(llm.WithProvider("script", adapter)),
		model:  "test-model",
		retry:  llm.RetryPolicy{},
		log:    slog.New(slog.DiscardHandler),
	}

	_, err := p.plan(context.Background(), planContext{task: "anything", iteration: 1})
	if err == nil {
		t.Fatal("expected error when the model is unreachable")
	}
}

func TestPlanRequestsStructuredOutput(t *testing.T) {
	adapter := &scriptAdapter{texts: []string{`{"calls":[]}`}}
	p := &planner{
		client: llm.NewClient(llm.WithProvider("script", adapter)),
		model:  "test-model",
		retry:  llm.RetryPolicy{},
		log:    slog.New(slog.DiscardHandler),
	}

	if _, err := p.plan(context.Background(), planContext{task: "anything", iteration: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := adapter.request(t, 0)
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
		t.Errorf("expected json_schema response format, got %+v", req.ResponseFormat)
	}
}
