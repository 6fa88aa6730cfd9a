// Package db is the data-access boundary for the SQL tools. Each call
// acquires its own connection and releases it before returning; nothing is
// shared across concurrent tool invocations.
package db

import (
	"context"
	"errors"
)

// ErrTableNotFound is returned by DescribeTable when the catalog query
// matches no columns: the table is missing, or the login cannot see it.
// The two cases are indistinguishable by design.
var ErrTableNotFound = errors.New("table not found or not accessible")

// Column describes one table column in catalog order.
type Column struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	MaxLength    *int64  `json:"max_length"`
	Nullable     bool    `json:"nullable"`
	Default      *string `json:"default"`
	IsPrimaryKey bool    `json:"is_primary_key"`
}

// TableInfo is the result of a table description. RowCount is an int64,
// or an explanatory string when the count query was not permitted.
type TableInfo struct {
	Schema   string
	Table    string
	Columns  []Column
	RowCount any
}

// RowSet holds the result of a read query with rows in result order.
type RowSet struct {
	Columns []string
	Rows    []map[string]any
}

// Store is the interface the tool handlers call. The tests substitute a
// fake; MSSQL is the production implementation.
type Store interface {
	DescribeTable(ctx context.Context, schema, table string) (*TableInfo, error)
	ReadRows(ctx context.Context, query string) (*RowSet, error)
}
