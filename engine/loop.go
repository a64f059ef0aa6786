package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hearthkit/hearth/llm"
)

// Task is one engine invocation: the user's request plus optional context.
type Task struct {
	// Text is the natural-language request.
	Text string

	// Conversation is prior conversation text, already rendered.
	Conversation string

	// Memory is a free-text memory note carried into planning.
	Memory string

	// ToolRoot selects the extension set. Empty reuses the current
	// registry (building the default set on first use).
	ToolRoot string

	// Model overrides the configured default model for this run.
	Model string
}

// Segment is one unit of streamed output: a passthrough-routed tool output
// or the terminal answer text.
type Segment struct {
	Text string
}

// Engine drives the plan/execute/route loop.
type Engine struct {
	cfg    Config
	client *llm.Client
	source Source
	retry  llm.RetryPolicy
	log    *slog.Logger

	registry atomic.Pointer[Registry]
	initMu   sync.Mutex
	toolRoot string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClient sets the language-model client.
func WithClient(client *llm.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithSource sets the extension discovery source.
func WithSource(source Source) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithRetryPolicy sets the retry policy for planner model calls.
func WithRetryPolicy(policy llm.RetryPolicy) Option {
	return func(e *Engine) {
		e.retry = policy
	}
}

// New creates an Engine. Without options it reads API keys from the
// environment and starts with an empty extension set (terminal tool only).
func New(cfg Config, opts ...Option) *Engine {
	cfg.normalize()
	e := &Engine{
		cfg:    cfg,
		source: StaticSource{},
		retry:  llm.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = llm.NewClientFromEnv()
	}
	if e.log == nil {
		if cfg.Debug {
			e.log = slog.Default()
		} else {
			e.log = slog.New(slog.DiscardHandler)
		}
	}
	return e
}

// Initialize (re)builds the tool registry for the given tool root. It is
// idempotent: the same root yields an equivalent tool name set every time.
// The registry is swapped atomically, so in-flight runs keep the set they
// started with.
func (e *Engine) Initialize(ctx context.Context, toolRoot string) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	exts, err := e.source.Discover(ctx, toolRoot)
	if err != nil {
		return fmt.Errorf("discover extensions for root %q: %w", toolRoot, err)
	}
	reg, err := buildRegistry(exts)
	if err != nil {
		return fmt.Errorf("build registry for root %q: %w", toolRoot, err)
	}

	e.registry.Store(reg)
	e.toolRoot = toolRoot
	e.log.Debug("registry initialized",
		slog.String("tool_root", toolRoot),
		slog.Int("tools", reg.Count()))
	return nil
}

// Registry returns the current tool registry, or nil before the first
// Initialize.
func (e *Engine) Registry() *Registry {
	return e.registry.Load()
}

// ensureRegistry returns a registry for the requested root, building one if
// needed or if the root changed.
func (e *Engine) ensureRegistry(ctx context.Context, toolRoot string) (*Registry, error) {
	e.initMu.Lock()
	current := e.toolRoot
	reg := e.registry.Load()
	e.initMu.Unlock()

	if reg != nil && (toolRoot == "" || toolRoot == current) {
		return reg, nil
	}
	if err := e.Initialize(ctx, toolRoot); err != nil {
		return nil, err
	}
	return e.registry.Load(), nil
}

// Run executes one full plan/execute/route loop and returns the assembled
// answer. Tool-level failures never surface as errors; the returned error
// is reserved for caller cancellation and setup failures.
func (e *Engine) Run(ctx context.Context, task Task) (*AgentResult, error) {
	return e.run(ctx, task, nil)
}

// RunStream is the streaming variant of Run: each passthrough-routed
// output and the terminal answer are emitted as segments on the returned
// channel as they are produced. The channel is closed when the run ends.
// A run that would produce a non-empty batch answer always yields at least
// one segment.
func (e *Engine) RunStream(ctx context.Context, task Task) (<-chan Segment, error) {
	if _, err := e.ensureRegistry(ctx, task.ToolRoot); err != nil {
		return nil, err
	}

	ch := make(chan Segment, 16)
	go func() {
		defer close(ch)

		emitted := 0
		sink := func(text string) {
			select {
			case ch <- Segment{Text: text}:
				emitted++
			case <-ctx.Done():
			}
		}

		res, err := e.run(ctx, task, sink)
		if err != nil {
			return
		}
		if emitted == 0 && res.FinalText != "" {
			// Degenerate case: the loop produced an answer without any
			// segment reaching the sink. Fall back to emitting the batch
			// result as a single segment so callers always observe output.
			select {
			case ch <- Segment{Text: res.FinalText}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

// run drives the loop. sink, when non-nil, receives each passthrough
// output and the terminal answer text as they are produced.
func (e *Engine) run(ctx context.Context, task Task, sink func(string)) (*AgentResult, error) {
	reg, err := e.ensureRegistry(ctx, task.ToolRoot)
	if err != nil {
		return nil, err
	}

	model := task.Model
	if model == "" {
		model = e.cfg.Model
	}

	runID := uuid.New().String()
	trace := NewRunTrace()
	exec := &executor{registry: reg, trace: trace, log: e.log}
	pl := &planner{client: e.client, model: model, retry: e.retry, log: e.log}

	catalog := reg.CatalogTable()
	domainPrompts := reg.DomainPrompts()

	var (
		passages  []string
		timings   []Timing
		review    []ExecutionResult
		finalText string
	)

	emit := func(text string) {
		passages = append(passages, text)
		if sink != nil {
			sink(text)
		}
	}

	e.log.Debug("run started", slog.String("run_id", runID), slog.String("model", model))

	for iteration := 1; iteration <= e.cfg.RecursionLimit; iteration++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		planStart := time.Now()
		step, err := pl.plan(ctx, planContext{
			task:          task.Text,
			conversation:  task.Conversation,
			memory:        task.Memory,
			catalog:       catalog,
			domainPrompts: domainPrompts,
			review:        review,
			iteration:     iteration,
		})
		timings = append(timings, Timing{
			Name:     fmt.Sprintf("plan_%d", iteration),
			Duration: time.Since(planStart),
		})
		if err != nil {
			// Infrastructure failure: surface as a single user-visible
			// diagnostic rather than an escaping error.
			e.log.Error("planner failed", slog.String("run_id", runID), slog.Any("error", err))
			finalText = fmt.Sprintf("language model unavailable: %v", err)
			break
		}

		// A plan with no calls is terminal; its final text (possibly
		// empty) is the answer for this step.
		if len(step.Calls) == 0 {
			finalText = strings.TrimSpace(step.FinalText)
			e.log.Debug("plan terminal", slog.String("run_id", runID), slog.Int("iteration", iteration))
			break
		}

		e.log.Debug("plan step",
			slog.String("run_id", runID),
			slog.Int("iteration", iteration),
			slog.Int("calls", len(step.Calls)))

		execStart := time.Now()
		results := exec.executeBatch(ctx, step.Calls)
		timings = append(timings, Timing{
			Name:     fmt.Sprintf("execute_%d", iteration),
			Duration: time.Since(execStart),
		})

		review = nil
		for i, call := range step.Calls {
			res := results[i]
			switch route(call, res) {
			case DispositionPassthrough:
				if res.Output != "" {
					emit(res.Output)
				}
			case DispositionReview:
				review = append(review, res)
			}
		}

		// Every result passed through: nothing left to review, so the run
		// is complete.
		if len(review) == 0 {
			break
		}
	}

	if finalText != "" && sink != nil {
		sink(finalText)
	}

	parts := make([]string, 0, len(passages)+1)
	parts = append(parts, passages...)
	if finalText != "" {
		parts = append(parts, finalText)
	}

	result := &AgentResult{
		RunID:     runID,
		FinalText: strings.TrimSpace(strings.Join(parts, "\n\n")),
		Trace:     trace.Entries(),
		Timings:   timings,
	}
	e.log.Debug("run finished",
		slog.String("run_id", runID),
		slog.Int("executions", len(result.Trace)),
		slog.Int("answer_len", len(result.FinalText)))
	return result, nil
}
