package engine

import (
	"sync"
	"time"
)

// ExecutionResult records the outcome of one planned call. Failures are
// normal values: a false Success never propagates as an error.
type ExecutionResult struct {
	Tool     string         `json:"tool"`
	Args     map[string]any `json:"args,omitempty"`
	Success  bool           `json:"success"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration,omitempty"`
}

// RunTrace is the per-run append-only log of every ExecutionResult. It is
// owned by a single engine invocation; concurrent appends from parallel
// executions are serialized, but entry order across concurrent calls is not
// guaranteed. Callers that need call-order pairing use the batch result
// slice, not the trace.
type RunTrace struct {
	mu      sync.Mutex
	entries []ExecutionResult
}

// NewRunTrace creates an empty RunTrace.
func NewRunTrace() *RunTrace {
	return &RunTrace{}
}

// Append adds a result to the trace.
func (t *RunTrace) Append(res ExecutionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, res)
}

// Entries returns a copy of all recorded results.
func (t *RunTrace) Entries() []ExecutionResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ExecutionResult, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of recorded results.
func (t *RunTrace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Timing is one named duration in a run's timing breakdown.
type Timing struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// AgentResult is the terminal output of one engine invocation.
type AgentResult struct {
	RunID     string            `json:"run_id"`
	FinalText string            `json:"final_text"`
	Trace     []ExecutionResult `json:"trace,omitempty"`
	Timings   []Timing          `json:"timings,omitempty"`
}
