// Package server implements the tool-host side of the protocol: a
// read-dispatch-write loop over a stream pair, serving one response per
// request until the input stream closes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/sqlmcp/codec"
	"github.com/sqlmcp/logger"
	"github.com/sqlmcp/mcp"
	"github.com/sqlmcp/tools"
)

const (
	serverName    = "sqlmcp"
	serverVersion = "1.0.0"
)

// Server dispatches requests from a single client to the tool registry.
// One Server owns one stream pair; concurrent callers get their own
// subprocess and therefore their own Server.
type Server struct {
	reader      *codec.FrameReader
	writer      io.Writer
	registry    *tools.Registry
	log         *logger.Logger
	initialized bool
}

func New(in io.Reader, out io.Writer, registry *tools.Registry) *Server {
	return &Server{
		reader:   codec.NewFrameReader(in),
		writer:   out,
		registry: registry,
		log:      logger.NewLogger("Server", uuid.NewString()),
	}
}

// Run reads frames until the input stream closes. A malformed frame gets an
// error response and the loop continues; only transport failures end it.
func (s *Server) Run(ctx context.Context) error {
	for {
		frame, err := s.reader.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Error(fmt.Sprintf("read error: %v", err))
			return err
		}

		req, err := codec.DecodeRequest(frame)
		if err != nil {
			s.log.Warn(fmt.Sprintf("malformed frame: %v", err))
			resp := &codec.JSONRPCResponse{
				JSONRPC: codec.JsonRPCVersion,
				ID:      recoverID(frame),
				Error:   &codec.RPCError{Code: codec.ParseError, Message: codec.ErrorMessage(codec.ParseError)},
			}
			if err := s.write(resp); err != nil {
				return err
			}
			continue
		}

		resp := s.dispatch(ctx, req)
		if resp == nil {
			continue // notification
		}
		if err := s.write(resp); err != nil {
			return err
		}
	}
}

func (s *Server) write(resp *codec.JSONRPCResponse) error {
	frame, err := codec.EncodeMessage(resp)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(frame); err != nil {
		s.log.Error(fmt.Sprintf("write error: %v", err))
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, req *codec.JSONRPCRequest) *codec.JSONRPCResponse {
	switch mcp.MCPMethod(req.Method) {
	case mcp.MethodInitialize:
		return s.handleInitialize(req)
	case mcp.NotificationInitialized:
		// client acknowledgment, no response
		return nil
	case mcp.MethodPing:
		return s.result(req.ID, map[string]any{})
	case mcp.MethodToolsList:
		return s.result(req.ID, mcp.ToolsListResult{Tools: s.registry.Descriptors()})
	case mcp.MethodToolsCall:
		return s.handleToolsCall(ctx, req)
	default:
		return &codec.JSONRPCResponse{
			JSONRPC: codec.JsonRPCVersion,
			ID:      req.ID,
			Error:   &codec.RPCError{Code: codec.MethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)},
		}
	}
}

// handleInitialize is deliberately permissive: a version mismatch is logged
// but still answered with this server's capabilities, so clients are not
// hard-coupled to one protocol revision.
func (s *Server) handleInitialize(req *codec.JSONRPCRequest) *codec.JSONRPCResponse {
	var params mcp.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.log.Warn(fmt.Sprintf("unreadable initialize params: %v", err))
		}
	}
	if params.ProtocolVersion != "" && params.ProtocolVersion != mcp.ProtocolVersion {
		s.log.Warn(fmt.Sprintf("client requested protocol version %q, serving %q",
			params.ProtocolVersion, mcp.ProtocolVersion))
	}
	s.initialized = true

	return s.result(req.ID, mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{},
		},
		ServerInfo: mcp.NewServerInfo(serverName, serverVersion),
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req *codec.JSONRPCRequest) *codec.JSONRPCResponse {
	var params mcp.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &codec.JSONRPCResponse{
			JSONRPC: codec.JsonRPCVersion,
			ID:      req.ID,
			Error:   &codec.RPCError{Code: codec.InvalidParams, Message: "invalid tools/call params: " + err.Error()},
		}
	}

	// Tool-level failures (unknown tool, bad arguments, handler errors)
	// travel inside the result, never as a protocol error.
	return s.result(req.ID, s.registry.Call(ctx, params.Name, params.Arguments))
}

func (s *Server) result(id any, v any) *codec.JSONRPCResponse {
	data, err := json.Marshal(v)
	if err != nil {
		return &codec.JSONRPCResponse{
			JSONRPC: codec.JsonRPCVersion,
			ID:      id,
			Error:   &codec.RPCError{Code: codec.InternalError, Message: codec.ErrorMessage(codec.InternalError)},
		}
	}
	return &codec.JSONRPCResponse{
		JSONRPC: codec.JsonRPCVersion,
		ID:      id,
		Result:  data,
	}
}

// recoverID pulls the request id out of a malformed frame when the JSON is
// intact enough to carry one, so the error response still correlates.
func recoverID(frame []byte) any {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(frame, &probe); err != nil {
		return nil
	}
	return probe.ID
}
