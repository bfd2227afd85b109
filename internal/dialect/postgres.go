package dialect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) TablesQuery() string {
	// use $1 placeholder
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND lower(table_name) = lower($2) AND table_type = 'BASE TABLE'`
}

func (d *PostgresDialect) ColumnsQuery() string {
	return `SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`
}

func (d *PostgresDialect) PrimaryKeysQuery() string {
	return `SELECT kcu.column_name FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1 AND tc.table_name = $2
ORDER BY kcu.ordinal_position`
}

func (d *PostgresDialect) CountQuery(schema, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteTable(schema, table))
}

func (d *PostgresDialect) SelectQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoteAll(cols, d.QuoteIdent), ", "), d.QuoteTable(schema, table))
}

func (d *PostgresDialect) UpsertQuery(schema, table string, cols, keys []string, rows int) string {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.QuoteTable(schema, table), strings.Join(quoteAll(cols, d.QuoteIdent), ", "), valuesRows(rows, len(cols), d.Placeholder))
	if len(keys) == 0 {
		return q
	}
	q += fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(quoteAll(keys, d.QuoteIdent), ", "))

	updates := nonKeyColumns(cols, keys)
	if len(updates) == 0 {
		return q + " DO NOTHING"
	}
	sets := make([]string, len(updates))
	for i, c := range updates {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", d.QuoteIdent(c), d.QuoteIdent(c))
	}
	return q + " DO UPDATE SET " + strings.Join(sets, ", ")
}

func (d *PostgresDialect) UpdateQuery(schema, table string, setCols []string, keyCol string) string {
	sets := make([]string, len(setCols))
	for i, c := range setCols {
		sets[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(i))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QuoteTable(schema, table), strings.Join(sets, ", "), d.QuoteIdent(keyCol), d.Placeholder(len(setCols)))
}

func (d *PostgresDialect) CreateBackupQuery(schema, source, backup string) string {
	return fmt.Sprintf("CREATE TABLE %s AS TABLE %s WITH NO DATA", d.QuoteTable(schema, backup), d.QuoteTable(schema, source))
}

func (d *PostgresDialect) AddPrimaryKeyQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", d.QuoteTable(schema, table), strings.Join(quoteAll(cols, d.QuoteIdent), ", "))
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) MaxParams() int { return 65535 }

func (d *PostgresDialect) BeforeWrite(ctx context.Context, conn Execer, schema, table string) error {
	return nil
}

func (d *PostgresDialect) AfterWrite(ctx context.Context, conn Execer, schema, table string) error {
	return nil
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *PostgresDialect) QuoteTable(schema, table string) string {
	return qualify(schema, table, d.QuoteIdent)
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}

// Classify maps SQLSTATE codes reported by lib/pq.
func (d *PostgresDialect) Classify(err error) Class {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "28P01", pqErr.Code == "28000":
			return ClassAuth
		case pqErr.Code.Class() == "23":
			return ClassIntegrity
		// ON CONFLICT DO UPDATE hit the same key twice in one statement.
		case pqErr.Code == "21000":
			return ClassIntegrity
		case pqErr.Code == "42P01":
			return ClassUndefinedTable
		case pqErr.Code == "42703":
			return ClassUndefinedColumn
		}
		return ClassUnknown
	}
	if isNetworkError(err) {
		return ClassNetwork
	}
	return ClassUnknown
}
