package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
)

const columnQuery = `
SELECT
    c.COLUMN_NAME,
    c.DATA_TYPE,
    c.CHARACTER_MAXIMUM_LENGTH,
    c.IS_NULLABLE,
    c.COLUMN_DEFAULT,
    CASE
        WHEN pk.COLUMN_NAME IS NOT NULL THEN 'YES'
        ELSE 'NO'
    END AS IS_PRIMARY_KEY
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN (
    SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
        ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
) pk ON c.TABLE_SCHEMA = pk.TABLE_SCHEMA
    AND c.TABLE_NAME = pk.TABLE_NAME
    AND c.COLUMN_NAME = pk.COLUMN_NAME
WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
ORDER BY c.ORDINAL_POSITION`

// MSSQL implements Store against a SQL Server instance.
type MSSQL struct {
	cfg *Config
}

func NewMSSQL(cfg *Config) *MSSQL {
	return &MSSQL{cfg: cfg}
}

func (m *MSSQL) open(ctx context.Context) (*sql.DB, error) {
	conn, err := sql.Open("sqlserver", m.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to %s: %w", m.cfg.Server, err)
	}
	return conn, nil
}

func (m *MSSQL) DescribeTable(ctx context.Context, schema, table string) (*TableInfo, error) {
	conn, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, columnQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("describing %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col       Column
			maxLen    sql.NullInt64
			nullable  string
			def       sql.NullString
			isPrimary string
		)
		if err := rows.Scan(&col.Name, &col.Type, &maxLen, &nullable, &def, &isPrimary); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		if maxLen.Valid {
			col.MaxLength = &maxLen.Int64
		}
		if def.Valid {
			col.Default = &def.String
		}
		col.Nullable = nullable == "YES"
		col.IsPrimaryKey = isPrimary == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading column rows: %w", err)
	}
	if len(columns) == 0 {
		return nil, ErrTableNotFound
	}

	return &TableInfo{
		Schema:   schema,
		Table:    table,
		Columns:  columns,
		RowCount: m.rowCount(ctx, conn, schema, table),
	}, nil
}

// rowCount is best-effort: COUNT(*) needs SELECT permission on the table
// itself, which the login may lack even when the catalog row is visible.
func (m *MSSQL) rowCount(ctx context.Context, conn *sql.DB, schema, table string) any {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", quoteIdent(schema), quoteIdent(table))
	var count int64
	if err := conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return "Unknown (no permission or table doesn't exist)"
	}
	return count
}

func (m *MSSQL) ReadRows(ctx context.Context, query string) (*RowSet, error) {
	conn, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	result := &RowSet{Columns: cols, Rows: []map[string]any{}}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, name := range cols {
			row[name] = NormalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading result rows: %w", err)
	}
	return result, nil
}

// quoteIdent brackets an identifier for T-SQL, doubling any closing
// bracket inside it.
func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
