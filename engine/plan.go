package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hearthkit/hearth/llm"
)

// PlannedCall is one tool invocation requested by the planner. The named
// tool need not exist in the registry: unknown names are handled at
// execution time, not treated as a parse error. Passthrough defaults to
// true when the model omits it; the planner sets it false to read a tool's
// output before acting on it without that output leaking into the answer.
type PlannedCall struct {
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args,omitempty"`
	Passthrough *bool          `json:"passthrough,omitempty"`
}

// IsPassthrough reports the effective passthrough flag.
func (c PlannedCall) IsPassthrough() bool {
	return c.Passthrough == nil || *c.Passthrough
}

// PlanStep is one planning iteration's output: zero or more calls plus an
// optional final answer. A step with no calls is terminal and its FinalText
// (possibly empty) is emitted; when calls are present FinalText is ignored.
type PlanStep struct {
	Calls     []PlannedCall `json:"calls,omitempty"`
	FinalText string        `json:"final_text,omitempty"`
}

// planContext bundles everything one planning call sees.
type planContext struct {
	task          string
	conversation  string
	memory        string
	catalog       string
	domainPrompts []string
	review        []ExecutionResult
	iteration     int
}

// planner issues one language-model call per iteration and parses the
// response into a PlanStep.
type planner struct {
	client *llm.Client
	model  string
	retry  llm.RetryPolicy
	log    *slog.Logger
}

// planStepSchema is the output shape requested from the model.
func planStepSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"calls": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tool":        map[string]any{"type": "string"},
						"args":        map[string]any{"type": "object"},
						"passthrough": map[string]any{"type": "boolean"},
					},
					"required": []any{"tool"},
				},
			},
			"final_text": map[string]any{"type": "string"},
		},
	}
}

const plannerGuidance = `You are the planning core of a personal assistant. Decide which tools to call to complete the user's task.

Rules:
- Emit a JSON object with "calls" (a list of tool calls) and optionally "final_text".
- Each call has "tool", "args", and an optional "passthrough" flag (default true).
- Set "passthrough": false when you need to read a tool's output yourself before deciding the next action; its output is then fed back to you instead of shown to the user.
- Successful passthrough outputs are shown to the user directly, in the order you issue the calls.
- To answer without using any other tool, either emit an empty "calls" list with "final_text", or call DIRECT_RESPONSE with a response_text argument.
- When results from your previous calls are provided, use them; do not repeat calls that already succeeded.`

// buildMessages assembles the role-tagged prompt for one iteration.
func (p *planner) buildMessages(pc planContext) []llm.Message {
	var system strings.Builder
	system.WriteString(plannerGuidance)
	for _, dp := range pc.domainPrompts {
		system.WriteString("\n\n")
		system.WriteString(dp)
	}
	system.WriteString("\n\nAvailable tools:\n")
	system.WriteString(pc.catalog)

	var user strings.Builder
	if pc.conversation != "" {
		user.WriteString("Conversation so far:\n")
		user.WriteString(pc.conversation)
		user.WriteString("\n\n")
	}
	if pc.memory != "" {
		user.WriteString("Memory:\n")
		user.WriteString(pc.memory)
		user.WriteString("\n\n")
	}
	user.WriteString("Task: ")
	user.WriteString(pc.task)

	if len(pc.review) > 0 {
		user.WriteString("\n\nResults from your previous tool calls:\n")
		user.WriteString(renderReviewItems(pc.review))
	}

	return []llm.Message{
		llm.SystemMessage(system.String()),
		llm.UserMessage(user.String()),
	}
}

// renderReviewItems formats review-routed results for the next planning
// iteration.
func renderReviewItems(items []ExecutionResult) string {
	var sb strings.Builder
	for i, item := range items {
		argsJSON, _ := json.Marshal(item.Args)
		fmt.Fprintf(&sb, "%d. %s(%s): ", i+1, item.Tool, string(argsJSON))
		if item.Success {
			sb.WriteString(item.Output)
		} else {
			sb.WriteString("ERROR: ")
			sb.WriteString(item.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// plan issues one model call and parses the result. Parse failures are not
// errors: they yield an empty PlanStep, which the loop controller treats as
// "nothing more to do". Only infrastructure failures (model unreachable
// after retries) are returned as errors.
func (p *planner) plan(ctx context.Context, pc planContext) (PlanStep, error) {
	req := llm.Request{
		Model:    p.model,
		Messages: p.buildMessages(pc),
		ResponseFormat: &llm.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: planStepSchema(),
			Strict:     true,
		},
	}

	resp, err := llm.Retry(ctx, p.retry, func(ctx context.Context) (*llm.Response, error) {
		return p.client.Complete(ctx, req)
	})
	if err != nil {
		return PlanStep{}, fmt.Errorf("planner model call: %w", err)
	}

	step, ok := decodePlanStep(resp.Text)
	if !ok {
		p.log.Debug("plan parse failed, treating as terminal",
			slog.Int("iteration", pc.iteration),
			slog.Int("response_len", len(resp.Text)))
		return PlanStep{}, nil
	}
	return step, nil
}

// decodePlanStep parses model output into a PlanStep. Structured decode
// runs first: the whole response is expected to be the JSON object. If the
// model wrapped the object in prose, the fallback extracts the first
// balanced {...} block and parses that. Neither path succeeding means an
// empty step.
func decodePlanStep(text string) (PlanStep, bool) {
	trimmed := strings.TrimSpace(stripCodeFence(text))

	var step PlanStep
	if err := json.Unmarshal([]byte(trimmed), &step); err == nil {
		return step, true
	}

	block, ok := extractBalancedObject(trimmed)
	if !ok {
		return PlanStep{}, false
	}
	if err := json.Unmarshal([]byte(block), &step); err != nil {
		return PlanStep{}, false
	}
	return step, true
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// extractBalancedObject returns the first balanced top-level {...} block in
// text, respecting JSON string literals and escapes.
func extractBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
