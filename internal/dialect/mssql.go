package dialect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb" // SQL Server Driver
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) prefers @p1, @p2 named parameters over ?

func (d *MSSQLDialect) Name() string { return "sqlserver" }

func (d *MSSQLDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND LOWER(TABLE_NAME) = LOWER(@p2) AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MSSQLDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION`
}

func (d *MSSQLDialect) PrimaryKeysQuery() string {
	return `SELECT kcu.COLUMN_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
  ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2
ORDER BY kcu.ORDINAL_POSITION`
}

func (d *MSSQLDialect) CountQuery(schema, table string) string {
	return fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s", d.QuoteTable(schema, table))
}

func (d *MSSQLDialect) SelectQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoteAll(cols, d.QuoteIdent), ", "), d.QuoteTable(schema, table))
}

func (d *MSSQLDialect) UpsertQuery(schema, table string, cols, keys []string, rows int) string {
	quoted := quoteAll(cols, d.QuoteIdent)
	values := valuesRows(rows, len(cols), d.Placeholder)
	if len(keys) == 0 {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", d.QuoteTable(schema, table), strings.Join(quoted, ", "), values)
	}

	on := make([]string, len(keys))
	for i, k := range keys {
		on[i] = fmt.Sprintf("target.%s = source.%s", d.QuoteIdent(k), d.QuoteIdent(k))
	}
	srcCols := make([]string, len(cols))
	for i, c := range quoted {
		srcCols[i] = "source." + c
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s AS target USING (VALUES %s) AS source (%s) ON %s",
		d.QuoteTable(schema, table), values, strings.Join(quoted, ", "), strings.Join(on, " AND "))
	if updates := nonKeyColumns(cols, keys); len(updates) > 0 {
		sets := make([]string, len(updates))
		for i, c := range updates {
			sets[i] = fmt.Sprintf("target.%s = source.%s", d.QuoteIdent(c), d.QuoteIdent(c))
		}
		fmt.Fprintf(&b, " WHEN MATCHED THEN UPDATE SET %s", strings.Join(sets, ", "))
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);", strings.Join(quoted, ", "), strings.Join(srcCols, ", "))
	return b.String()
}

func (d *MSSQLDialect) UpdateQuery(schema, table string, setCols []string, keyCol string) string {
	sets := make([]string, len(setCols))
	for i, c := range setCols {
		sets[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(i))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QuoteTable(schema, table), strings.Join(sets, ", "), d.QuoteIdent(keyCol), d.Placeholder(len(setCols)))
}

func (d *MSSQLDialect) CreateBackupQuery(schema, source, backup string) string {
	return fmt.Sprintf("SELECT * INTO %s FROM %s WHERE 1 = 0", d.QuoteTable(schema, backup), d.QuoteTable(schema, source))
}

func (d *MSSQLDialect) AddPrimaryKeyQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", d.QuoteTable(schema, table), strings.Join(quoteAll(cols, d.QuoteIdent), ", "))
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

// SQL Server accepts at most 2100 parameters per request.
func (d *MSSQLDialect) MaxParams() int { return 2099 }

// BeforeWrite enables explicit values for IDENTITY columns. The setting is
// per session, which is why a job keeps a single connection.
func (d *MSSQLDialect) BeforeWrite(ctx context.Context, conn Execer, schema, table string) error {
	_, err := conn.ExecContext(ctx, d.identityInsert(schema, table, "ON"))
	return err
}

func (d *MSSQLDialect) AfterWrite(ctx context.Context, conn Execer, schema, table string) error {
	_, err := conn.ExecContext(ctx, d.identityInsert(schema, table, "OFF"))
	return err
}

func (d *MSSQLDialect) identityInsert(schema, table, state string) string {
	t := d.QuoteTable(schema, table)
	return fmt.Sprintf("IF OBJECTPROPERTY(OBJECT_ID(N%s), 'TableHasIdentity') = 1 SET IDENTITY_INSERT %s %s", stringLiteral(t), t, state)
}

func (d *MSSQLDialect) QuoteIdent(name string) string {
	return quoteWith(name, "[", "]")
}

func (d *MSSQLDialect) QuoteTable(schema, table string) string {
	return qualify(schema, table, d.QuoteIdent)
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}

// Classify maps SQL Server error numbers.
func (d *MSSQLDialect) Classify(err error) Class {
	var number int32
	var msErr mssql.Error
	var msErrPtr *mssql.Error
	switch {
	case errors.As(err, &msErr):
		number = msErr.Number
	case errors.As(err, &msErrPtr):
		number = msErrPtr.Number
	default:
		if isNetworkError(err) {
			return ClassNetwork
		}
		return ClassUnknown
	}

	switch number {
	case 18456, 18452, 4060:
		return ClassAuth
	case 2627, 2601, 547, 515, 8672:
		return ClassIntegrity
	case 208:
		return ClassUndefinedTable
	case 207:
		return ClassUndefinedColumn
	}
	return ClassUnknown
}
