// Package client implements the caller side of the protocol: a Session
// owning one tool-host subprocess, plus one-shot helpers that run a full
// session lifecycle around a single tool call.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sqlmcp/codec"
	"github.com/sqlmcp/logger"
	"github.com/sqlmcp/mcp"
)

const (
	clientName    = "sqlmcp-client"
	clientVersion = "1.0.0"

	// DefaultTimeout bounds every request/response round trip. A hung
	// subprocess fails the in-flight call instead of blocking forever.
	DefaultTimeout = 30 * time.Second

	stopWait = 5 * time.Second
)

type sessionState int

const (
	stateNew sessionState = iota
	stateStarted
	stateStopped
)

// Session owns one subprocess and runs a strictly sequential
// request/response protocol over its stdin/stdout: at most one request is
// outstanding at a time.
type Session struct {
	command string
	args    []string
	timeout time.Duration
	log     *logger.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *codec.FrameReader

	nextID atomic.Int64

	mu         sync.Mutex
	state      sessionState
	serverInfo mcp.ServerInfo
}

type Option func(*Session)

// WithTimeout overrides the per-round-trip timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// NewSession prepares a session that will spawn the given command. Nothing
// runs until Start.
func NewSession(command string, args []string, opts ...Option) *Session {
	s := &Session{
		command: command,
		args:    args,
		timeout: DefaultTimeout,
		log:     logger.NewLogger("Session", uuid.NewString()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newSessionFromPipes wires a session directly to a stream pair, skipping
// the subprocess. Used by tests.
func newSessionFromPipes(r io.Reader, w io.WriteCloser, opts ...Option) *Session {
	s := &Session{
		timeout: DefaultTimeout,
		log:     logger.NewLogger("Session", uuid.NewString()),
		stdin:   w,
		reader:  codec.NewFrameReader(r),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start spawns the tool-host process and performs the handshake. The
// session accepts tool calls only after Start returns nil.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateNew {
		return fmt.Errorf("start: %w", ErrSessionClosed)
	}

	if s.reader == nil {
		cmd := exec.CommandContext(ctx, s.command, s.args...)
		cmd.Stderr = os.Stderr // subprocess diagnostics pass through

		stdin, err := cmd.StdinPipe()
		if err != nil {
			return &HandshakeError{Err: fmt.Errorf("creating stdin pipe: %w", err)}
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return &HandshakeError{Err: fmt.Errorf("creating stdout pipe: %w", err)}
		}
		if err := cmd.Start(); err != nil {
			return &HandshakeError{Err: fmt.Errorf("starting %s: %w", s.command, err)}
		}
		s.cmd = cmd
		s.stdin = stdin
		s.reader = codec.NewFrameReader(stdout)
	}

	resp, err := s.roundTrip(ctx, mcp.MethodInitialize, mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    mcp.NewClientCapabilities(),
		ClientInfo:      mcp.NewClientInfo(clientName, clientVersion),
	})
	if err != nil {
		s.stopLocked()
		return &HandshakeError{Err: err}
	}
	if resp.Error != nil {
		s.stopLocked()
		return &HandshakeError{Err: resp.Error}
	}

	var result mcp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err == nil {
		s.serverInfo = result.ServerInfo
		s.log.Info(fmt.Sprintf("handshake complete with %s %s (protocol %s)",
			result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion))
	}

	s.notify(mcp.NotificationInitialized)
	s.state = stateStarted
	return nil
}

// ServerInfo returns the identity the tool host reported during the
// handshake.
func (s *Session) ServerInfo() mcp.ServerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverInfo
}

// ListTools returns the tool descriptors in the order the host registered
// them.
func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	resp, err := s.roundTrip(ctx, mcp.MethodToolsList, struct{}{})
	if err != nil {
		return nil, &ToolListingError{Err: err}
	}
	if resp.Error != nil {
		return nil, &ToolListingError{Err: resp.Error}
	}

	var result mcp.ToolsListResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ToolListingError{Err: fmt.Errorf("parsing tools/list result: %w", err)}
	}
	return result.Tools, nil
}

// CallTool invokes a tool and blocks until its response arrives. When the
// result carries a single text content item holding JSON, that document is
// returned; otherwise the raw result structure is returned unchanged.
func (s *Session) CallTool(ctx context.Context, name string, arguments map[string]any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	args, err := json.Marshal(arguments)
	if err != nil {
		return nil, fmt.Errorf("marshaling tool arguments: %w", err)
	}

	resp, err := s.roundTrip(ctx, mcp.MethodToolsCall, mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &ToolCallError{Tool: name, Message: resp.Error.Message}
	}

	return unwrapResult(resp.Result), nil
}

// Stop closes the outbound stream and terminates the subprocess with a
// bounded wait. It is idempotent: stopping an unstarted or already-stopped
// session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Session) stopLocked() error {
	if s.state == stateStopped {
		return nil
	}
	s.state = stateStopped

	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(stopWait):
		s.log.Warn("subprocess did not exit, killing it")
		s.cmd.Process.Kill()
		<-done
	}
	return nil
}

func (s *Session) ensureStarted() error {
	switch s.state {
	case stateNew:
		return ErrNotStarted
	case stateStopped:
		return ErrSessionClosed
	}
	return nil
}

// roundTrip sends one request and reads exactly one response, bounded by
// the session timeout. On timeout the subprocess is treated as dead.
func (s *Session) roundTrip(ctx context.Context, method mcp.MCPMethod, params any) (*codec.JSONRPCResponse, error) {
	id := s.nextID.Add(1)

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling params: %w", err)
	}
	frame, err := codec.EncodeMessage(codec.JSONRPCRequest{
		JSONRPC: codec.JsonRPCVersion,
		ID:      id,
		Method:  string(method),
		Params:  paramsJSON,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.stdin.Write(frame); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	type readResult struct {
		resp *codec.JSONRPCResponse
		err  error
	}
	readCh := make(chan readResult, 1)
	go func() {
		resp, err := s.readResponse()
		readCh <- readResult{resp, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.markDead()
		return nil, ctx.Err()
	case <-timer.C:
		s.markDead()
		return nil, fmt.Errorf("%w (after %s)", ErrResponseTimeout, s.timeout)
	case r := <-readCh:
		if r.err != nil {
			return nil, r.err
		}
		if got, ok := codec.IDToInt64(r.resp.ID); !ok || got != id {
			return nil, fmt.Errorf("response id %v does not match request id %d", r.resp.ID, id)
		}
		return r.resp, nil
	}
}

// markDead flags the session so later calls fail fast; the reader goroutine
// stays blocked until Stop tears the pipes down.
func (s *Session) markDead() {
	s.state = stateStopped
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
}

func (s *Session) readResponse() (*codec.JSONRPCResponse, error) {
	frame, err := s.reader.ReadFrame()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("stream closed before a response arrived: %w", err)
		}
		return nil, err
	}
	return codec.DecodeResponse(frame)
}

// notify sends a one-way notification; failures are logged, not returned,
// since no response will ever confirm delivery anyway.
func (s *Session) notify(method mcp.MCPMethod) {
	frame, err := codec.EncodeMessage(codec.Notification{
		JSONRPC: codec.JsonRPCVersion,
		Method:  string(method),
	})
	if err != nil {
		s.log.Warn(fmt.Sprintf("encoding %s notification: %v", method, err))
		return
	}
	if _, err := s.stdin.Write(frame); err != nil {
		s.log.Warn(fmt.Sprintf("sending %s notification: %v", method, err))
	}
}

// unwrapResult extracts the payload from a tools/call result. A single
// text content item holding JSON becomes that document; anything else is
// returned as the raw result structure.
func unwrapResult(raw json.RawMessage) any {
	var result mcp.CallToolResult
	if err := json.Unmarshal(raw, &result); err == nil && len(result.Content) == 1 && result.Content[0].Type == "text" {
		var doc any
		if err := json.Unmarshal([]byte(result.Content[0].Text), &doc); err == nil {
			return doc
		}
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return string(raw)
	}
	return generic
}
