package mcp

import "encoding/json"

// Tool describes one named, schema-described unit of functionality.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

// ToolsListResult is returned by tools/list.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams is sent by the client in tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is returned by the server for tools/call. Tool-level
// failures travel inside it as content, never as a protocol error.
type CallToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ContentItem is one piece of content in a tool result.
type ContentItem struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}

// TextResult wraps a serialized tool payload as a single text content item.
func TextResult(text string) *CallToolResult {
	return &CallToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
	}
}
