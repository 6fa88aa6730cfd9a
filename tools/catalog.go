package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sqlmcp/db"
	"github.com/sqlmcp/mcp"
	"github.com/sqlmcp/sqlguard"
)

// DefaultSchema is the schema assumed when the caller names none.
const DefaultSchema = "dbo"

// NewCatalog returns the fixed tool catalog, in registration order.
func NewCatalog(store db.Store, guard *sqlguard.Guard) []ToolDef {
	c := &catalog{store: store, guard: guard}
	return []ToolDef{
		{
			Tool: mcp.Tool{
				Name:        "describe_table",
				Description: "Describes the structure of a database table",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"table_name": map[string]any{
							"type":        "string",
							"description": "Name of the table to describe",
						},
						"schema": map[string]any{
							"type":        "string",
							"description": "Schema name (default: 'dbo')",
							"default":     DefaultSchema,
						},
					},
					"required": []string{"table_name"},
				},
			},
			Handler: c.describeTable,
		},
		{
			Tool: mcp.Tool{
				Name:        "read_data",
				Description: "Executes a SELECT query to read data",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "SELECT SQL query to execute",
						},
						"limit": map[string]any{
							"type":        "integer",
							"description": "Maximum number of rows (1-1000, default: 100)",
							"default":     sqlguard.DefaultLimit,
							"minimum":     sqlguard.MinLimit,
							"maximum":     sqlguard.MaxLimit,
						},
					},
					"required": []string{"query"},
				},
			},
			Handler: c.readData,
		},
	}
}

type catalog struct {
	store db.Store
	guard *sqlguard.Guard
}

func (c *catalog) describeTable(ctx context.Context, args json.RawMessage) map[string]any {
	var params struct {
		TableName string `json:"table_name"`
		Schema    string `json:"schema"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return ErrorDoc(fmt.Sprintf("invalid arguments: %v", err))
	}
	if params.Schema == "" {
		params.Schema = DefaultSchema
	}

	info, err := c.store.DescribeTable(ctx, params.Schema, params.TableName)
	if err != nil {
		if errors.Is(err, db.ErrTableNotFound) {
			return ErrorDoc(fmt.Sprintf(
				"Table %s.%s not found or you don't have permission to access it.",
				params.Schema, params.TableName))
		}
		return ErrorDoc(fmt.Sprintf("Database error: %v", err))
	}

	return map[string]any{
		"status":     "success",
		"schema":     info.Schema,
		"table_name": info.Table,
		"columns":    info.Columns,
		"row_count":  info.RowCount,
	}
}

func (c *catalog) readData(ctx context.Context, args json.RawMessage) map[string]any {
	var params struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return ErrorDoc(fmt.Sprintf("invalid arguments: %v", err))
	}

	sq, err := c.guard.Sanitize(params.Query, params.Limit)
	if err != nil {
		return ErrorDoc(err.Error())
	}

	rs, err := c.store.ReadRows(ctx, sq.Bounded)
	if err != nil {
		return ErrorDoc(fmt.Sprintf(
			"Query execution failed: %v. You may not have permission to access this data.", err))
	}

	return map[string]any{
		"status":    "success",
		"columns":   rs.Columns,
		"row_count": len(rs.Rows),
		"rows":      rs.Rows,
		"message":   fmt.Sprintf("Retrieved %d rows", len(rs.Rows)),
	}
}
