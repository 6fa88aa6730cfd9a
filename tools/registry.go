// Package tools holds the tool registry and the fixed tool catalog. The
// registry is immutable after construction and safe to share read-only
// across dispatchers.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sqlmcp/mcp"
)

// Handler runs one validated tool invocation. It returns the tool's result
// document; domain failures are data ({"status":"error"}), never errors.
type Handler func(ctx context.Context, args json.RawMessage) map[string]any

// ToolDef pairs a tool descriptor with its handler.
type ToolDef struct {
	Tool    mcp.Tool
	Handler Handler
}

type Registry struct {
	defs    []ToolDef
	index   map[string]int
	schemas map[string]*compiledSchema
}

// NewRegistry builds an immutable registry preserving registration order.
// Input schemas are compiled once here rather than per call.
func NewRegistry(defs ...ToolDef) (*Registry, error) {
	r := &Registry{
		defs:    defs,
		index:   make(map[string]int, len(defs)),
		schemas: make(map[string]*compiledSchema, len(defs)),
	}
	for i, def := range defs {
		if _, dup := r.index[def.Tool.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", def.Tool.Name)
		}
		r.index[def.Tool.Name] = i

		schema, err := compileSchema(def.Tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("compiling input schema for %q: %w", def.Tool.Name, err)
		}
		r.schemas[def.Tool.Name] = schema
	}
	return r, nil
}

// Descriptors returns the tool descriptors in registration order.
func (r *Registry) Descriptors() []mcp.Tool {
	out := make([]mcp.Tool, len(r.defs))
	for i, def := range r.defs {
		out[i] = def.Tool
	}
	return out
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (*ToolDef, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return &r.defs[i], true
}

// Call validates the arguments against the tool's input schema and runs the
// handler. Every failure mode (unknown tool, invalid arguments, handler
// panic) becomes an application-level error result, never a protocol error:
// a tool that declined is not a protocol that broke.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult {
	def, ok := r.Lookup(name)
	if !ok {
		return errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := r.schemas[name].validate(args); err != nil {
		return errorResult(err.Error())
	}

	return r.callSafe(ctx, def, args)
}

func (r *Registry) callSafe(ctx context.Context, def *ToolDef, args json.RawMessage) (result *mcp.CallToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = errorResult(fmt.Sprintf("Tool execution failed: %v", rec))
		}
	}()
	return toResult(def.Handler(ctx, args))
}

// toResult serializes a tool result document into a single text content
// item, the form callers unwrap on the other side.
func toResult(doc map[string]any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Tool execution failed: %v", err))
	}
	res := mcp.TextResult(string(data))
	if status, _ := doc["status"].(string); status == "error" {
		res.IsError = true
	}
	return res
}

func errorResult(msg string) *mcp.CallToolResult {
	return toResult(ErrorDoc(msg))
}

// ErrorDoc is the uniform application-level failure document.
func ErrorDoc(msg string) map[string]any {
	return map[string]any{
		"status":  "error",
		"message": msg,
	}
}
