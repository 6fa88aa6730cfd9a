package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlmcp/codec"
	"github.com/sqlmcp/db"
	"github.com/sqlmcp/server"
	"github.com/sqlmcp/sqlguard"
	"github.com/sqlmcp/tools"
)

type stubStore struct {
	rows *db.RowSet
}

func (s *stubStore) DescribeTable(ctx context.Context, schema, table string) (*db.TableInfo, error) {
	return &db.TableInfo{
		Schema:   schema,
		Table:    table,
		Columns:  []db.Column{{Name: "id", Type: "int", IsPrimaryKey: true}},
		RowCount: int64(1),
	}, nil
}

func (s *stubStore) ReadRows(ctx context.Context, query string) (*db.RowSet, error) {
	if s.rows != nil {
		return s.rows, nil
	}
	return &db.RowSet{Columns: []string{}, Rows: []map[string]any{}}, nil
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestSession wires a session to an in-process dispatcher over pipes:
// the full protocol without a subprocess. The returned buffer records every
// frame the session sent.
func newTestSession(t *testing.T, store db.Store, opts ...Option) (*Session, *safeBuffer) {
	t.Helper()

	clientIn, serverOut := io.Pipe()
	serverIn, clientOut := io.Pipe()

	reg, err := tools.NewRegistry(tools.NewCatalog(store, sqlguard.New())...)
	require.NoError(t, err)

	sent := &safeBuffer{}
	srv := server.New(io.TeeReader(serverIn, sent), serverOut, reg)
	go func() {
		srv.Run(context.Background())
		serverOut.Close()
	}()

	sess := newSessionFromPipes(clientIn, clientOut, opts...)
	t.Cleanup(func() { sess.Stop() })
	return sess, sent
}

func TestStartHandshake(t *testing.T) {
	sess, _ := newTestSession(t, &stubStore{})

	require.NoError(t, sess.Start(context.Background()))
	assert.Equal(t, "sqlmcp", sess.ServerInfo().Name)
}

func TestOperationsBeforeStartFail(t *testing.T) {
	sess, _ := newTestSession(t, &stubStore{})

	_, err := sess.ListTools(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = sess.CallTool(context.Background(), "read_data", nil)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestListTools(t *testing.T) {
	sess, _ := newTestSession(t, &stubStore{})
	require.NoError(t, sess.Start(context.Background()))

	list, err := sess.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "describe_table", list[0].Name)
	assert.Equal(t, "read_data", list[1].Name)
}

func TestCallToolUnwrapsTextPayload(t *testing.T) {
	store := &stubStore{rows: &db.RowSet{
		Columns: []string{"id"},
		Rows:    []map[string]any{{"id": 1}, {"id": 2}},
	}}
	sess, _ := newTestSession(t, store)
	require.NoError(t, sess.Start(context.Background()))

	payload, err := sess.CallTool(context.Background(), "read_data",
		map[string]any{"query": "SELECT * FROM Accounts"})
	require.NoError(t, err)

	doc, ok := payload.(map[string]any)
	require.True(t, ok, "text content should be parsed into a document")
	assert.Equal(t, "success", doc["status"])
	assert.Equal(t, float64(2), doc["row_count"])
}

func TestCallToolDomainErrorIsData(t *testing.T) {
	sess, _ := newTestSession(t, &stubStore{})
	require.NoError(t, sess.Start(context.Background()))

	// the gate declines, but the protocol round trip succeeds
	payload, err := sess.CallTool(context.Background(), "read_data",
		map[string]any{"query": "DELETE FROM Accounts"})
	require.NoError(t, err)

	doc, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", doc["status"])
}

func TestRequestIDsStrictlyIncrease(t *testing.T) {
	sess, sent := newTestSession(t, &stubStore{})
	require.NoError(t, sess.Start(context.Background()))

	_, err := sess.ListTools(context.Background())
	require.NoError(t, err)
	_, err = sess.CallTool(context.Background(), "read_data",
		map[string]any{"query": "SELECT 1"})
	require.NoError(t, err)

	var last int64
	var seen int
	for _, line := range bytes.Split([]byte(sent.String()), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var req codec.JSONRPCRequest
		require.NoError(t, json.Unmarshal(line, &req))
		if req.IsNotification() {
			continue
		}
		id, ok := codec.IDToInt64(req.ID)
		require.True(t, ok)
		assert.Greater(t, id, last, "request ids must strictly increase")
		last = id
		seen++
	}
	assert.Equal(t, 3, seen) // initialize, tools/list, tools/call
}

func TestResponseTimeout(t *testing.T) {
	// a host that reads requests but never answers them
	clientIn, _ := io.Pipe()
	serverIn, clientOut := io.Pipe()
	go io.Copy(io.Discard, serverIn)

	sess := newSessionFromPipes(clientIn, clientOut, WithTimeout(50*time.Millisecond))
	t.Cleanup(func() { sess.Stop() })

	done := make(chan error, 1)
	go func() { done <- sess.Start(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		var hs *HandshakeError
		require.True(t, errors.As(err, &hs))
		assert.ErrorIs(t, err, ErrResponseTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after the response timeout")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sess, _ := newTestSession(t, &stubStore{})
	require.NoError(t, sess.Start(context.Background()))

	assert.NoError(t, sess.Stop())
	assert.NoError(t, sess.Stop())
}

func TestStopOnUnstartedSessionIsNoOp(t *testing.T) {
	sess := NewSession("/nonexistent", nil)
	assert.NoError(t, sess.Stop())
	assert.NoError(t, sess.Stop())
}

func TestCallAfterStopFails(t *testing.T) {
	sess, _ := newTestSession(t, &stubStore{})
	require.NoError(t, sess.Start(context.Background()))
	require.NoError(t, sess.Stop())

	_, err := sess.CallTool(context.Background(), "read_data", nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestHandshakeFailsOnErrorResponse(t *testing.T) {
	clientIn, respond := io.Pipe()
	serverIn, clientOut := io.Pipe()

	// a host that rejects the handshake outright
	go func() {
		fr := codec.NewFrameReader(serverIn)
		frame, err := fr.ReadFrame()
		if err != nil {
			return
		}
		req, err := codec.DecodeRequest(frame)
		if err != nil {
			return
		}
		out, _ := codec.EncodeMessage(codec.JSONRPCResponse{
			JSONRPC: codec.JsonRPCVersion,
			ID:      req.ID,
			Error:   &codec.RPCError{Code: codec.InvalidRequest, Message: "not today"},
		})
		respond.Write(out)
	}()

	sess := newSessionFromPipes(clientIn, clientOut)
	t.Cleanup(func() { sess.Stop() })

	err := sess.Start(context.Background())
	require.Error(t, err)

	var hs *HandshakeError
	require.True(t, errors.As(err, &hs))
	assert.Contains(t, err.Error(), "not today")
}

func TestUnwrapResultFallsBackToRawStructure(t *testing.T) {
	// multiple content items: returned unchanged
	raw := json.RawMessage(`{"content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`)
	out := unwrapResult(raw)
	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "content")

	// single text item that is not JSON: returned unchanged
	raw = json.RawMessage(`{"content":[{"type":"text","text":"plain words"}]}`)
	out = unwrapResult(raw)
	m, ok = out.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "content")

	// single text item holding JSON: parsed
	raw = json.RawMessage(`{"content":[{"type":"text","text":"{\"status\":\"success\"}"}]}`)
	out = unwrapResult(raw)
	doc, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "success", doc["status"])
}
