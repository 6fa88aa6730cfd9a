package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedMessage marks a frame that is not valid JSON or fails the
// request/response shape check. Decode errors wrap it so callers can keep
// the dispatch loop alive on bad input.
var ErrMalformedMessage = errors.New("malformed message")

// EncodeMessage serializes one message as a single newline-terminated frame.
// The JSON serializer escapes control characters, so the frame body never
// contains a raw newline.
func EncodeMessage(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses one frame into a request and checks its shape.
func DecodeRequest(line []byte) (*JSONRPCRequest, error) {
	var req JSONRPCRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if req.JSONRPC != JsonRPCVersion {
		return nil, fmt.Errorf("%w: invalid jsonrpc version %q", ErrMalformedMessage, req.JSONRPC)
	}
	if req.Method == "" {
		return nil, fmt.Errorf("%w: missing method", ErrMalformedMessage)
	}
	return &req, nil
}

// DecodeResponse parses one frame into a response and checks its shape.
func DecodeResponse(line []byte) (*JSONRPCResponse, error) {
	var resp JSONRPCResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if resp.JSONRPC != JsonRPCVersion {
		return nil, fmt.Errorf("%w: invalid jsonrpc version %q", ErrMalformedMessage, resp.JSONRPC)
	}
	if resp.Error != nil && resp.Result != nil {
		return nil, fmt.Errorf("%w: response carries both result and error", ErrMalformedMessage)
	}
	if resp.Error == nil && resp.Result == nil {
		return nil, fmt.Errorf("%w: response carries neither result nor error", ErrMalformedMessage)
	}
	return &resp, nil
}

// FrameReader yields newline-delimited frames from a byte stream.
type FrameReader struct {
	r *bufio.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadFrame returns the next non-empty line without its terminator. It
// returns io.EOF when the stream closes; a trailing line with no newline at
// stream end is a closed-stream condition, not a partial frame to buffer.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	for {
		line, err := fr.r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading frame: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}
