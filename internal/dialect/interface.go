package dialect

import (
	"context"
	"database/sql"
)

// Execer is the subset of *sql.Conn / *sql.DB the write hooks need.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Dialect abstracts database-specific SQL text and driver error codes.
// Every identifier handed to a query builder must already be resolved
// against the live catalog; the builders only quote.
type Dialect interface {
	// Driver name registered with database/sql.
	Name() string

	// Catalog queries. Each takes (schema, table) as bound arguments.
	// TablesQuery returns table names matching case-insensitively,
	// ColumnsQuery returns (column_name, data_type, is_nullable) by ordinal position,
	// PrimaryKeysQuery returns column names in key order.
	TablesQuery() string
	ColumnsQuery() string
	PrimaryKeysQuery() string

	// Query generation
	CountQuery(schema, table string) string
	SelectQuery(schema, table string, cols []string) string
	UpsertQuery(schema, table string, cols, keys []string, rows int) string
	UpdateQuery(schema, table string, setCols []string, keyCol string) string
	CreateBackupQuery(schema, source, backup string) string
	AddPrimaryKeyQuery(schema, table string, cols []string) string
	Placeholder(index int) string // Returns ?, $1, @p1, :1
	MaxParams() int

	// Execution hooks around bulk writes (IDENTITY_INSERT etc.)
	BeforeWrite(ctx context.Context, conn Execer, schema, table string) error
	AfterWrite(ctx context.Context, conn Execer, schema, table string) error

	// Helpers
	QuoteIdent(name string) string
	QuoteTable(schema, table string) string
	GetSchemaName(input string) string
	Classify(err error) Class
}
