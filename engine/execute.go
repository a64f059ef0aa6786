package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// executor runs planned calls to completion. It is the failure containment
// boundary for arbitrary tool code: lookup misses, validation failures,
// returned errors, and panics all become ExecutionResults, never escaping
// errors.
type executor struct {
	registry *Registry
	trace    *RunTrace
	log      *slog.Logger
}

const errUnknownTool = "unknown tool"

// execute runs one planned call and appends the result to the run trace.
func (e *executor) execute(ctx context.Context, call PlannedCall) ExecutionResult {
	res := e.executeInner(ctx, call)
	e.trace.Append(res)
	e.log.Debug("tool executed",
		slog.String("tool", res.Tool),
		slog.Bool("success", res.Success),
		slog.Duration("duration", res.Duration))
	return res
}

func (e *executor) executeInner(ctx context.Context, call PlannedCall) ExecutionResult {
	res := ExecutionResult{Tool: call.Tool, Args: call.Args}

	tool := e.registry.get(call.Tool)
	if tool == nil {
		res.Error = errUnknownTool
		return res
	}

	args, verr := validateArgs(tool, call.Args)
	if verr != nil {
		res.Error = verr.Error()
		return res
	}

	start := time.Now()
	out, err := invokeTool(ctx, tool.fn, args)
	res.Duration = time.Since(start)

	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.Output = normalizeOutput(out)
	return res
}

// invokeTool calls the tool body, converting panics into ordinary errors.
func invokeTool(ctx context.Context, fn ToolFunc, args map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return fn(ctx, args)
}

// normalizeOutput converts a tool's return value to its display string.
// Plain strings pass through; structured values are serialized to canonical
// JSON.
func normalizeOutput(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	case fmt.Stringer:
		return out.String()
	case []byte:
		return string(out)
	case error:
		return out.Error()
	default:
		raw, err := json.Marshal(out)
		if err != nil {
			return fmt.Sprintf("%v", out)
		}
		return string(raw)
	}
}

// executeBatch dispatches all calls in a plan step concurrently, one
// goroutine per call, and collects results in call order regardless of
// completion order. Slow tool bodies stall only their own slot.
func (e *executor) executeBatch(ctx context.Context, calls []PlannedCall) []ExecutionResult {
	if len(calls) == 1 {
		return []ExecutionResult{e.execute(ctx, calls[0])}
	}

	results := make([]ExecutionResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c PlannedCall) {
			defer wg.Done()
			results[idx] = e.execute(ctx, c)
		}(i, call)
	}
	wg.Wait()
	return results
}
