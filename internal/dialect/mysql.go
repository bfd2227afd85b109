package dialect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type MysqlDialect struct{}

// An empty schema means the database selected in the DSN.
const mysqlSchemaExpr = "COALESCE(NULLIF(?, ''), DATABASE())"

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ` + mysqlSchemaExpr + ` AND LOWER(TABLE_NAME) = LOWER(?) AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ` + mysqlSchemaExpr + ` AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) PrimaryKeysQuery() string {
	return `SELECT COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ` + mysqlSchemaExpr + ` AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY' ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) CountQuery(schema, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteTable(schema, table))
}

func (d *MysqlDialect) SelectQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoteAll(cols, d.QuoteIdent), ", "), d.QuoteTable(schema, table))
}

func (d *MysqlDialect) UpsertQuery(schema, table string, cols, keys []string, rows int) string {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.QuoteTable(schema, table), strings.Join(quoteAll(cols, d.QuoteIdent), ", "), valuesRows(rows, len(cols), d.Placeholder))
	if len(keys) == 0 {
		return q
	}
	updates := nonKeyColumns(cols, keys)
	if len(updates) == 0 {
		// no-op assignment keeps the duplicate row untouched
		k := d.QuoteIdent(keys[0])
		return q + fmt.Sprintf(" ON DUPLICATE KEY UPDATE %s = %s", k, k)
	}
	sets := make([]string, len(updates))
	for i, c := range updates {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", d.QuoteIdent(c), d.QuoteIdent(c))
	}
	return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

func (d *MysqlDialect) UpdateQuery(schema, table string, setCols []string, keyCol string) string {
	sets := make([]string, len(setCols))
	for i, c := range setCols {
		sets[i] = fmt.Sprintf("%s = ?", d.QuoteIdent(c))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", d.QuoteTable(schema, table), strings.Join(sets, ", "), d.QuoteIdent(keyCol))
}

func (d *MysqlDialect) CreateBackupQuery(schema, source, backup string) string {
	return fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s WHERE 1 = 0", d.QuoteTable(schema, backup), d.QuoteTable(schema, source))
}

func (d *MysqlDialect) AddPrimaryKeyQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", d.QuoteTable(schema, table), strings.Join(quoteAll(cols, d.QuoteIdent), ", "))
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) MaxParams() int { return 65535 }

func (d *MysqlDialect) BeforeWrite(ctx context.Context, conn Execer, schema, table string) error {
	return nil
}

func (d *MysqlDialect) AfterWrite(ctx context.Context, conn Execer, schema, table string) error {
	return nil
}

func (d *MysqlDialect) QuoteIdent(name string) string {
	return quoteWith(name, "`", "`")
}

func (d *MysqlDialect) QuoteTable(schema, table string) string {
	return qualify(schema, table, d.QuoteIdent)
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return input
}

// Classify maps MySQL server error numbers.
func (d *MysqlDialect) Classify(err error) Class {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1698:
			return ClassAuth
		case 1048, 1062, 1216, 1217, 1451, 1452, 1557, 3819:
			return ClassIntegrity
		case 1146:
			return ClassUndefinedTable
		case 1054:
			return ClassUndefinedColumn
		}
		return ClassUnknown
	}
	if errors.Is(err, mysql.ErrInvalidConn) || isNetworkError(err) {
		return ClassNetwork
	}
	return ClassUnknown
}
