package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tablesync/internal/dialect"
	"tablesync/internal/syncerr"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Introspector reads table metadata from the live catalog. Nothing is
// cached: every call re-queries, since tables can change during a long job.
type Introspector struct {
	d dialect.Dialect
}

func NewIntrospector(d dialect.Dialect) *Introspector {
	return &Introspector{d: d}
}

// ResolveTable returns the catalog's spelling of table. An exact match wins
// over a case-insensitive one. A missing table is an InvalidTable error.
func (in *Introspector) ResolveTable(ctx context.Context, q Querier, schemaName, table string) (string, error) {
	target := in.d.GetSchemaName(schemaName)

	rows, err := q.QueryContext(ctx, in.d.TablesQuery(), target, table)
	if err != nil {
		return "", fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var found string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("failed to scan table name: %w", err)
		}
		if name == table {
			found = name
			break
		}
		if found == "" {
			found = name
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating tables: %w", err)
	}

	if found == "" {
		return "", syncerr.New(syncerr.InvalidTable, "The table %s does not exist in the schema %s.", table, displaySchema(target))
	}
	return found, nil
}

// TableExists reports whether table is present in the catalog.
func (in *Introspector) TableExists(ctx context.Context, q Querier, schemaName, table string) (bool, error) {
	_, err := in.ResolveTable(ctx, q, schemaName, table)
	if err == nil {
		return true, nil
	}
	if syncerr.KindOf(err) == syncerr.InvalidTable {
		return false, nil
	}
	return false, err
}

// GetSchema returns the columns of table ordered by ordinal position.
func (in *Introspector) GetSchema(ctx context.Context, q Querier, schemaName, table string) (TableSchema, error) {
	target := in.d.GetSchemaName(schemaName)
	ts := TableSchema{Schema: target, Table: table}

	rows, err := q.QueryContext(ctx, in.d.ColumnsQuery(), target, table)
	if err != nil {
		return ts, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, isNull sql.NullString
		if err := rows.Scan(&name, &dataType, &isNull); err != nil {
			return ts, fmt.Errorf("failed to scan column (table: %s): %w", table, err)
		}
		if !name.Valid {
			continue
		}
		ts.Columns = append(ts.Columns, ColumnDescriptor{
			Name:     name.String,
			DataType: dataType.String,
			Nullable: strings.EqualFold(isNull.String, "YES"),
			Ordinal:  len(ts.Columns) + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return ts, fmt.Errorf("error iterating columns: %w", err)
	}
	return ts, nil
}

// GetPrimaryKeyColumns returns the key columns of table in key order,
// or an empty slice when no primary key is declared.
func (in *Introspector) GetPrimaryKeyColumns(ctx context.Context, q Querier, schemaName, table string) ([]string, error) {
	target := in.d.GetSchemaName(schemaName)

	rows, err := q.QueryContext(ctx, in.d.PrimaryKeysQuery(), target, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		keys = append(keys, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primary keys: %w", err)
	}
	return keys, nil
}

// RowCount counts the rows of table. The name must already be resolved.
func (in *Introspector) RowCount(ctx context.Context, q Querier, schemaName, table string) (int64, error) {
	target := in.d.GetSchemaName(schemaName)
	var n int64
	if err := q.QueryRowContext(ctx, in.d.CountQuery(target, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

// ResolveColumns maps requested names to the catalog's spelling, dropping
// duplicates. Unknown names are an InvalidColumn error.
func ResolveColumns(ts TableSchema, requested []string) ([]string, error) {
	out := make([]string, 0, len(requested))
	seen := make(map[string]bool)
	for _, r := range requested {
		c, ok := ts.Column(strings.TrimSpace(r))
		if !ok {
			return nil, syncerr.New(syncerr.InvalidColumn, "The selected column %s does not exist in table %s.", r, ts.Table)
		}
		if seen[strings.ToLower(c.Name)] {
			continue
		}
		seen[strings.ToLower(c.Name)] = true
		out = append(out, c.Name)
	}
	return out, nil
}

func displaySchema(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
