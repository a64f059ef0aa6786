package engine

import "context"

// Tool pairs a ToolSpec with its invocation trampoline. Extensions build
// these once at startup; the engine never reflects over live functions.
type Tool struct {
	Spec ToolSpec
	Func ToolFunc
}

// Extension is one unit of the external tool catalog: a name, optional
// domain guidance text merged into the planner's system context, and the
// tools it contributes.
type Extension struct {
	Name         string
	SystemPrompt string
	Tools        []Tool
}

// Source is the extension discovery collaborator. Discover resolves a tool
// root (an opaque discovery handle: a directory, a profile name, a tenant
// id) to the extensions available under it. Discover must be idempotent:
// the same toolRoot yields an equivalent extension set on every call.
type Source interface {
	Discover(ctx context.Context, toolRoot string) ([]Extension, error)
}

// StaticSource is a Source over a fixed extension list, ignoring the tool
// root. It is the common case for assistants that compile their tool
// catalog in.
type StaticSource struct {
	Extensions []Extension
}

// Discover returns the configured extensions.
func (s StaticSource) Discover(_ context.Context, _ string) ([]Extension, error) {
	return s.Extensions, nil
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, toolRoot string) ([]Extension, error)

// Discover calls f.
func (f SourceFunc) Discover(ctx context.Context, toolRoot string) ([]Extension, error) {
	return f(ctx, toolRoot)
}
