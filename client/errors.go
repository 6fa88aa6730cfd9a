package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is returned when an operation requires a completed
	// handshake.
	ErrNotStarted = errors.New("session not started")

	// ErrSessionClosed is returned for calls on a stopped or dead session.
	ErrSessionClosed = errors.New("session closed")

	// ErrResponseTimeout means the subprocess did not answer in time. The
	// session treats the subprocess as dead afterwards.
	ErrResponseTimeout = errors.New("timed out waiting for response")
)

// HandshakeError wraps whatever kept the initialize exchange from
// completing: an error response, a closed stream, or a spawn failure.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// ToolListingError wraps an error response to tools/list.
type ToolListingError struct {
	Err error
}

func (e *ToolListingError) Error() string {
	return fmt.Sprintf("listing tools failed: %v", e.Err)
}

func (e *ToolListingError) Unwrap() error { return e.Err }

// ToolCallError reports an error response to a tools/call request. It means
// the protocol itself failed for this call; a tool that ran and declined
// reports that inside its result instead.
type ToolCallError struct {
	Tool    string
	Message string
}

func (e *ToolCallError) Error() string {
	return fmt.Sprintf("calling tool %s failed: %s", e.Tool, e.Message)
}
