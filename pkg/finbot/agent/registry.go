// Package agent – registry.go manages the named set of callable tools and
// dispatches tool calls by name. Dispatch into an unknown name is an
// execution failure, never a crash.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultToolTimeout bounds a single tool execution.
const DefaultToolTimeout = 30 * time.Second

// ToolHandlerFunc executes a tool call with parsed arguments.
type ToolHandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// registeredTool pairs a tool's definition with its handler.
type registeredTool struct {
	Definition ToolDefinition
	Handler    ToolHandlerFunc
}

// ToolResult is the outcome of one tool execution, fed back to the model
// as a tool message.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	Err        error
}

// Registry holds all registered tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*registeredTool
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*registeredTool),
		logger: logger.With("component", "tool_registry"),
	}
}

// Register adds a tool. Re-registering a name replaces the old handler.
func (r *Registry) Register(def ToolDefinition, handler ToolHandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Function.Name] = &registeredTool{Definition: def, Handler: handler}
	r.logger.Debug("tool registered", "name", def.Function.Name)
}

// Definitions returns the declarations for the given tool names, sorted
// for a stable prompt. Unknown names are skipped.
func (r *Registry) Definitions(names []string) []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []ToolDefinition
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			defs = append(defs, t.Definition)
		}
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Function.Name < defs[j].Function.Name
	})
	return defs
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Execute runs one tool call against the active subset. A handler error
// or an unknown/inactive name becomes an error result; it never aborts
// the caller's turn.
func (r *Registry) Execute(ctx context.Context, call ToolCall, active []string) ToolResult {
	name := call.Function.Name
	result := ToolResult{ToolCallID: call.ID, Name: name}

	allowed := false
	for _, n := range active {
		if n == name {
			allowed = true
			break
		}
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok || !allowed {
		result.Err = fmt.Errorf("unknown tool: %s", name)
		result.Content = result.Err.Error()
		toolExecutions.WithLabelValues(name, "unknown").Inc()
		return result
	}

	args, err := parseArguments(call.Function.Arguments)
	if err != nil {
		result.Err = fmt.Errorf("invalid arguments for %s: %w", name, err)
		result.Content = result.Err.Error()
		toolExecutions.WithLabelValues(name, "error").Inc()
		return result
	}

	execCtx, cancel := context.WithTimeout(ctx, DefaultToolTimeout)
	defer cancel()

	start := time.Now()
	out, err := tool.Handler(execCtx, args)
	if err != nil {
		r.logger.Warn("tool failed", "tool", name, "err", err)
		result.Err = err
		result.Content = "Error: " + err.Error()
		toolExecutions.WithLabelValues(name, "error").Inc()
		return result
	}

	result.Content = stringifyResult(out)
	toolExecutions.WithLabelValues(name, "ok").Inc()
	r.logger.Debug("tool executed", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return result
}

// parseArguments decodes the model's serialized arguments. Empty input
// means a zero-argument call.
func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// stringifyResult renders a handler's return value as tool-message text.
func stringifyResult(v any) string {
	switch t := v.(type) {
	case nil:
		return "ok"
	case string:
		return t
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// MakeToolDefinition creates a ToolDefinition from name, description, and
// a parameter schema map (JSON Schema format).
func MakeToolDefinition(name, description string, params map[string]any) ToolDefinition {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	if params != nil {
		schema = params
	}

	schemaJSON, _ := json.Marshal(schema)

	return ToolDefinition{
		Type: "function",
		Function: FunctionDef{
			Name:        name,
			Description: description,
			Parameters:  schemaJSON,
		},
	}
}
