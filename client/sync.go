package client

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Facade runs one-shot tool calls for callers that cannot hold a long-lived
// session. Every call spawns its own tool-host subprocess, performs the
// handshake, executes exactly one call and tears the subprocess down again:
// per-call startup cost traded for complete isolation between calls.
type Facade struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewFacade builds a façade that re-executes the current binary with the
// serve subcommand as its tool host.
func NewFacade() (*Facade, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}
	return &Facade{
		Command: exe,
		Args:    []string{"serve"},
		Timeout: DefaultTimeout,
	}, nil
}

// DescribeTable describes a table's structure. An empty schema means dbo.
func (f *Facade) DescribeTable(ctx context.Context, tableName, schema string) (any, error) {
	args := map[string]any{"table_name": tableName}
	if schema != "" {
		args["schema"] = schema
	}
	return f.callOnce(ctx, "describe_table", args)
}

// ReadData runs a read query. A zero limit means the server default.
func (f *Facade) ReadData(ctx context.Context, query string, limit int) (any, error) {
	args := map[string]any{"query": query}
	if limit != 0 {
		args["limit"] = limit
	}
	return f.callOnce(ctx, "read_data", args)
}

// callOnce runs a complete session lifecycle around a single tool call.
// Stop runs on every exit path so no subprocess outlives its call.
func (f *Facade) callOnce(ctx context.Context, name string, args map[string]any) (any, error) {
	sess := NewSession(f.Command, f.Args, WithTimeout(f.Timeout))
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}
	defer sess.Stop()

	return sess.CallTool(ctx, name, args)
}
