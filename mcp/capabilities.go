package mcp

// --- MCP Handshake Specific Structures ---

// Capabilities Structures
type ToolCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// Use map for flexibility with experimental features
type ExperimentalCapabilities map[string]any

type ClientCapabilities struct {
	Tools        *ToolCapabilities        `json:"tools,omitempty"`
	Experimental ExperimentalCapabilities `json:"experimental,omitempty"`
}

func NewClientCapabilities() ClientCapabilities {
	return ClientCapabilities{
		Tools: &ToolCapabilities{},
	}
}

type ServerCapabilities struct {
	Tools        *ToolCapabilities        `json:"tools,omitempty"`
	Experimental ExperimentalCapabilities `json:"experimental,omitempty"`
}

// Info Structures
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func NewClientInfo(name, version string) ClientInfo {
	return ClientInfo{
		Name:    name,
		Version: version,
	}
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func NewServerInfo(name, version string) ServerInfo {
	return ServerInfo{
		Name:    name,
		Version: version,
	}
}

// Initialize Request/Response Payloads
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}
