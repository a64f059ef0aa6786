package engine

import (
	"context"
	"testing"
	"time"
)

func collectSegments(t *testing.T, ch <-chan Segment) []string {
	t.Helper()
	var out []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case seg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, seg.Text)
		case <-timeout:
			t.Fatal("timed out waiting for segments")
		}
	}
}

func TestRunStreamPassthroughSegments(t *testing.T) {
	makeTool := func(name, out string) Tool {
		return Tool{
			Spec: ToolSpec{Name: name},
			Func: func(_ context.Context, _ map[string]any) (any, error) { return out, nil },
		}
	}
	ext := Extension{
		Name:  "fetchers",
		Tools: []Tool{makeTool("first_fetch", "X"), makeTool("second_fetch", "Y")},
	}
	adapter := &scriptAdapter{texts: []string{
		`{"calls":[{"tool":"first_fetch"},{"tool":"second_fetch"}]}`,
	}}
	e := newTestEngine(t, adapter, ext)

	ch, err := e.RunStream(context.Background(), Task{Text: "fetch both"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := collectSegments(t, ch)
	if len(segs) != 2 || segs[0] != "X" || segs[1] != "Y" {
		t.Errorf("expected segments [X Y], got %v", segs)
	}
}

func TestRunStreamFinalTextSingleSegment(t *testing.T) {
	adapter := &scriptAdapter{texts: []string{`{"calls":[],"final_text":"All done."}`}}
	e := newTestEngine(t, adapter)

	ch, err := e.RunStream(context.Background(), Task{Text: "finish up"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := collectSegments(t, ch)
	if len(segs) != 1 || segs[0] != "All done." {
		t.Errorf("expected exactly one segment with the answer, got %v", segs)
	}
}

func TestRunStreamReviewOutputNotStreamed(t *testing.T) {
	lookup := Extension{
		Name: "contacts",
		Tools: []Tool{{
			Spec: ToolSpec{Name: "lookup_contact"},
			Func: func(_ context.Context, _ map[string]any) (any, error) { return "secret", nil },
		}},
	}
	adapter := &scriptAdapter{texts: []string{
		`{"calls":[{"tool":"lookup_contact","passthrough":false}]}`,
		`{"calls":[],"final_text":"done"}`,
	}}
	e := newTestEngine(t, adapter, lookup)

	ch, err := e.RunStream(context.Background(), Task{Text: "look up alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := collectSegments(t, ch)
	if len(segs) != 1 || segs[0] != "done" {
		t.Errorf("expected only the final answer segment, got %v", segs)
	}
}

func TestRunStreamEmptyAnswerNoSegments(t *testing.T) {
	adapter := &scriptAdapter{texts: []string{`{"calls":[]}`}}
	e := newTestEngine(t, adapter)

	ch, err := e.RunStream(context.Background(), Task{Text: "nothing to do"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := collectSegments(t, ch)
	if len(segs) != 0 {
		t.Errorf("expected no segments for an empty answer, got %v", segs)
	}
}

func TestRunStreamMixedSegments(t *testing.T) {
	ext := Extension{
		Name: "fetchers",
		Tools: []Tool{{
			Spec: ToolSpec{Name: "fetch"},
			Func: func(_ context.Context, _ map[string]any) (any, error) { return "partial", nil },
		}},
	}
	adapter := &scriptAdapter{texts: []string{
		`{"calls":[{"tool":"fetch"},{"tool":"fetch_missing"}]}`,
		`{"calls":[],"final_text":"summary"}`,
	}}
	e := newTestEngine(t, adapter, ext)

	ch, err := e.RunStream(context.Background(), Task{Text: "fetch and summarize"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := collectSegments(t, ch)
	if len(segs) != 2 || segs[0] != "partial" || segs[1] != "summary" {
		t.Errorf("expected segments [partial summary], got %v", segs)
	}
}
