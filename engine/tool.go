package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParamKind is the static type of a tool parameter.
type ParamKind string

const (
	ParamString  ParamKind = "string"
	ParamInteger ParamKind = "integer"
	ParamNumber  ParamKind = "number"
	ParamBoolean ParamKind = "boolean"
	ParamObject  ParamKind = "object"
	ParamArray   ParamKind = "array"
)

// ParamSpec describes one named, typed, optionally-defaulted tool parameter.
// A parameter without a default is required.
type ParamSpec struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	HasDefault  bool      `json:"has_default,omitempty"`
}

// Required reports whether the parameter must be supplied by the planner.
func (p ParamSpec) Required() bool {
	return !p.HasDefault
}

// ToolSpec is the immutable descriptor of one registered tool.
type ToolSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params,omitempty"`
	Extension   string      `json:"extension,omitempty"`
}

// ToolFunc is the invocation trampoline for a tool body. Arguments arrive
// already validated and coerced against the ToolSpec. Implementations may
// block; the engine runs them off the planning goroutine.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// registeredTool pairs a spec with its trampoline and pre-compiled argument
// schema.
type registeredTool struct {
	spec   ToolSpec
	fn     ToolFunc
	schema *jsonschema.Schema
}

// DirectResponseTool is the reserved terminal tool. Planning a single call
// to it with a response_text argument answers the user directly without
// further tool use. The name is reserved: extensions cannot register it.
const DirectResponseTool = "DIRECT_RESPONSE"

func directResponseSpec() ToolSpec {
	return ToolSpec{
		Name:        DirectResponseTool,
		Description: "Respond directly to the user with text. Use this when no other tool is needed.",
		Params: []ParamSpec{
			{Name: "response_text", Kind: ParamString, Description: "The text to respond with."},
		},
	}
}

func directResponseFunc(_ context.Context, args map[string]any) (any, error) {
	text, _ := args["response_text"].(string)
	return text, nil
}

// Registry is the immutable name -> tool mapping for one engine
// configuration. It is built once by buildRegistry and replaced atomically
// on rebuild, never mutated in place, so in-flight runs always observe a
// consistent tool set. The DIRECT_RESPONSE terminal tool is always present.
type Registry struct {
	tools   map[string]*registeredTool
	names   []string // sorted, for deterministic catalog rendering
	prompts []string // extension system prompts, in discovery order
}

// buildRegistry assembles a Registry from discovered extensions. Tool names
// must be unique across extensions and must not collide with the reserved
// terminal tool.
func buildRegistry(exts []Extension) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]*registeredTool),
	}

	terminal := directResponseSpec()
	terminalSchema, err := compileParamSchema(terminal)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", DirectResponseTool, err)
	}
	r.tools[DirectResponseTool] = &registeredTool{
		spec:   terminal,
		fn:     directResponseFunc,
		schema: terminalSchema,
	}

	for _, ext := range exts {
		if ext.SystemPrompt != "" {
			r.prompts = append(r.prompts, ext.SystemPrompt)
		}
		for _, tool := range ext.Tools {
			spec := tool.Spec
			if spec.Name == "" {
				return nil, fmt.Errorf("extension %q declares a tool with no name", ext.Name)
			}
			if spec.Name == DirectResponseTool {
				return nil, fmt.Errorf("extension %q redefines reserved tool %s", ext.Name, DirectResponseTool)
			}
			if _, exists := r.tools[spec.Name]; exists {
				return nil, fmt.Errorf("duplicate tool name %q (extension %q)", spec.Name, ext.Name)
			}
			if tool.Func == nil {
				return nil, fmt.Errorf("tool %q has no function", spec.Name)
			}
			if spec.Extension == "" {
				spec.Extension = ext.Name
			}
			schema, err := compileParamSchema(spec)
			if err != nil {
				return nil, fmt.Errorf("compile schema for tool %q: %w", spec.Name, err)
			}
			r.tools[spec.Name] = &registeredTool{spec: spec, fn: tool.Func, schema: schema}
		}
	}

	r.names = make([]string, 0, len(r.tools))
	for name := range r.tools {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r, nil
}

// Lookup returns the ToolSpec for a name. Unknown names are a normal
// runtime condition, reported via the second return.
func (r *Registry) Lookup(name string) (ToolSpec, bool) {
	t, ok := r.tools[name]
	if !ok {
		return ToolSpec{}, false
	}
	return t.spec, true
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Count returns the number of registered tools, terminal tool included.
func (r *Registry) Count() int {
	return len(r.tools)
}

// DomainPrompts returns the extension-supplied guidance texts.
func (r *Registry) DomainPrompts() []string {
	out := make([]string, len(r.prompts))
	copy(out, r.prompts)
	return out
}

// CatalogTable renders the compact name -> description table given to the
// planner so it knows what it may call.
func (r *Registry) CatalogTable() string {
	var sb strings.Builder
	for _, name := range r.names {
		t := r.tools[name]
		sb.WriteString("- ")
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(t.spec.Description)
		if len(t.spec.Params) > 0 {
			parts := make([]string, 0, len(t.spec.Params))
			for _, p := range t.spec.Params {
				s := p.Name + " (" + string(p.Kind)
				if !p.Required() {
					s += ", optional"
				}
				s += ")"
				parts = append(parts, s)
			}
			sb.WriteString(" Args: ")
			sb.WriteString(strings.Join(parts, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (r *Registry) get(name string) *registeredTool {
	return r.tools[name]
}
