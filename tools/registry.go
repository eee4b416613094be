// Package tools provides tool management and registration.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Schema resolution done once at construction
// - Normalize, validate, execute sequence hidden behind Invoke

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	zjson "github.com/zkstudy/zee/internal/json"
	"github.com/zkstudy/zee/llm"
	"github.com/zkstudy/zee/model"
)

type entry struct {
	tool     Tool
	meta     Metadata
	resolved *jsonschema.Resolved
}

// Registry is an immutable set of tools keyed by name.
//
// It is built once and shared read-only between agents, so it needs no lock.
type Registry struct {
	entries  map[string]entry
	names    []string
	executor *Executor
}

// NewRegistry builds a registry from the given tools.
// Returns error on duplicate names or schemas that fail to resolve.
func NewRegistry(tools ...Tool) (*Registry, error) {
	return NewRegistryWithExecutor(NewExecutor(0), tools...)
}

// NewRegistryWithExecutor builds a registry whose invocations go through exec.
func NewRegistryWithExecutor(exec *Executor, tools ...Tool) (*Registry, error) {
	if exec == nil {
		exec = NewExecutor(0)
	}
	r := &Registry{
		entries:  make(map[string]entry, len(tools)),
		executor: exec,
	}

	for _, tool := range tools {
		meta := tool.Metadata()
		if meta.Name == "" {
			return nil, fmt.Errorf("tool has empty name")
		}
		if _, exists := r.entries[meta.Name]; exists {
			return nil, fmt.Errorf("tool '%s' already registered", meta.Name)
		}

		var resolved *jsonschema.Resolved
		if meta.Schema != nil {
			var err error
			resolved, err = meta.Schema.Resolve(nil)
			if err != nil {
				return nil, fmt.Errorf("tool '%s': resolve schema: %w", meta.Name, err)
			}
		}

		r.entries[meta.Name] = entry{tool: tool, meta: meta, resolved: resolved}
		r.names = append(r.names, meta.Name)
	}
	sort.Strings(r.names)

	return r, nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	e, exists := r.entries[name]
	return e.tool, exists
}

// Has checks if a tool exists in the registry.
func (r *Registry) Has(name string) bool {
	_, exists := r.Get(name)
	return exists
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// List returns metadata for all registered tools, sorted by name.
func (r *Registry) List() []Metadata {
	if r == nil {
		return nil
	}
	metadata := make([]Metadata, 0, len(r.names))
	for _, name := range r.names {
		metadata = append(metadata, r.entries[name].meta)
	}
	return metadata
}

// Description returns a formatted description of all tools for LLM prompts.
func (r *Registry) Description() string {
	var descriptions []string
	for _, meta := range r.List() {
		schema := "{}"
		if meta.Schema != nil {
			if data, err := json.Marshal(meta.Schema); err == nil {
				schema = string(data)
			}
		}
		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s\nDescription: %s\nArguments schema: %s",
			meta.Name, meta.Description, schema))
	}

	return strings.Join(descriptions, "\n\n")
}

// Definitions returns the tool definitions offered to a provider.
func (r *Registry) Definitions() ([]llm.ToolDefinition, error) {
	defs := make([]llm.ToolDefinition, 0, r.Len())
	for _, meta := range r.List() {
		params, err := schemaParameters(meta.Schema)
		if err != nil {
			return nil, fmt.Errorf("tool '%s': %w", meta.Name, err)
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        meta.Name,
			Description: meta.Description,
			Parameters:  params,
		})
	}
	return defs, nil
}

// Invoke runs the named tool with raw model-produced arguments.
//
// Arguments are normalized, then validated against the tool's schema, and
// only then executed. An unknown id or rejected arguments yield a ToolError
// of kind InvalidArguments without executing anything.
func (r *Registry) Invoke(ctx context.Context, id string, raw json.RawMessage) (string, model.ToolCall, error) {
	call := model.ToolCall{Name: id, InputSize: len(raw)}

	e, ok := r.lookup(id)
	if !ok {
		return "", call, invalidArguments(id, fmt.Errorf("unknown tool"))
	}

	args, err := zjson.NormalizeArguments(raw)
	if err != nil {
		return "", call, invalidArguments(id, err)
	}
	if err := validateArguments(e.resolved, args); err != nil {
		return "", call, invalidArguments(id, err)
	}

	output, call, err := r.executor.Execute(ctx, e.tool, args)
	call.InputSize = len(raw)
	return output, call, err
}

func (r *Registry) lookup(id string) (entry, bool) {
	if r == nil {
		return entry{}, false
	}
	e, ok := r.entries[id]
	return e, ok
}
