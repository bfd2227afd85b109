package dialect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sijms/go-ora/v2/network"
)

type OracleDialect struct{}

// Oracle binds '' as NULL, so an empty schema falls back to the session user.
const oracleOwnerExpr = "COALESCE(UPPER(:1), USER)"

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM ALL_TABLES WHERE OWNER = ` + oracleOwnerExpr + ` AND UPPER(TABLE_NAME) = UPPER(:2)`
}

func (d *OracleDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, DATA_TYPE, CASE NULLABLE WHEN 'Y' THEN 'YES' ELSE 'NO' END
FROM ALL_TAB_COLUMNS WHERE OWNER = ` + oracleOwnerExpr + ` AND TABLE_NAME = :2 ORDER BY COLUMN_ID`
}

func (d *OracleDialect) PrimaryKeysQuery() string {
	return `SELECT cc.COLUMN_NAME
FROM ALL_CONS_COLUMNS cc
JOIN ALL_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME AND cc.OWNER = uc.OWNER
WHERE uc.CONSTRAINT_TYPE = 'P' AND uc.OWNER = ` + oracleOwnerExpr + ` AND uc.TABLE_NAME = :2
ORDER BY cc.POSITION`
}

func (d *OracleDialect) CountQuery(schema, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteTable(schema, table))
}

func (d *OracleDialect) SelectQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoteAll(cols, d.QuoteIdent), ", "), d.QuoteTable(schema, table))
}

// selectFromDual renders "SELECT :1 AS a, :2 AS b FROM dual UNION ALL ..." as
// the row source; Oracle has no multi-row VALUES list.
func (d *OracleDialect) selectFromDual(cols []string, rows int) string {
	selects := make([]string, rows)
	for r := 0; r < rows; r++ {
		fields := make([]string, len(cols))
		for i, c := range cols {
			fields[i] = fmt.Sprintf("%s AS %s", d.Placeholder(r*len(cols)+i), d.QuoteIdent(c))
		}
		selects[r] = "SELECT " + strings.Join(fields, ", ") + " FROM dual"
	}
	return strings.Join(selects, " UNION ALL ")
}

func (d *OracleDialect) UpsertQuery(schema, table string, cols, keys []string, rows int) string {
	quoted := quoteAll(cols, d.QuoteIdent)
	source := d.selectFromDual(cols, rows)
	if len(keys) == 0 {
		return fmt.Sprintf("INSERT INTO %s (%s) %s", d.QuoteTable(schema, table), strings.Join(quoted, ", "), source)
	}

	on := make([]string, len(keys))
	for i, k := range keys {
		on[i] = fmt.Sprintf("tgt.%s = src.%s", d.QuoteIdent(k), d.QuoteIdent(k))
	}
	srcCols := make([]string, len(cols))
	for i, c := range quoted {
		srcCols[i] = "src." + c
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s tgt USING (%s) src ON (%s)", d.QuoteTable(schema, table), source, strings.Join(on, " AND "))
	if updates := nonKeyColumns(cols, keys); len(updates) > 0 {
		sets := make([]string, len(updates))
		for i, c := range updates {
			sets[i] = fmt.Sprintf("tgt.%s = src.%s", d.QuoteIdent(c), d.QuoteIdent(c))
		}
		fmt.Fprintf(&b, " WHEN MATCHED THEN UPDATE SET %s", strings.Join(sets, ", "))
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)", strings.Join(quoted, ", "), strings.Join(srcCols, ", "))
	return b.String()
}

func (d *OracleDialect) UpdateQuery(schema, table string, setCols []string, keyCol string) string {
	sets := make([]string, len(setCols))
	for i, c := range setCols {
		sets[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(i))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QuoteTable(schema, table), strings.Join(sets, ", "), d.QuoteIdent(keyCol), d.Placeholder(len(setCols)))
}

func (d *OracleDialect) CreateBackupQuery(schema, source, backup string) string {
	return fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s WHERE 1 = 0", d.QuoteTable(schema, backup), d.QuoteTable(schema, source))
}

func (d *OracleDialect) AddPrimaryKeyQuery(schema, table string, cols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", d.QuoteTable(schema, table), strings.Join(quoteAll(cols, d.QuoteIdent), ", "))
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) MaxParams() int { return 32767 }

func (d *OracleDialect) BeforeWrite(ctx context.Context, conn Execer, schema, table string) error {
	return nil
}

func (d *OracleDialect) AfterWrite(ctx context.Context, conn Execer, schema, table string) error {
	return nil
}

func (d *OracleDialect) QuoteIdent(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (d *OracleDialect) QuoteTable(schema, table string) string {
	return qualify(strings.ToUpper(schema), table, d.QuoteIdent)
}

func (d *OracleDialect) GetSchemaName(input string) string {
	return input
}

// Classify maps ORA- error codes reported by go-ora.
func (d *OracleDialect) Classify(err error) Class {
	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		switch oraErr.ErrCode {
		case 1017, 28000, 1005:
			return ClassAuth
		case 1, 1400, 1407, 2290, 2291, 2292, 30926:
			return ClassIntegrity
		case 942:
			return ClassUndefinedTable
		case 904:
			return ClassUndefinedColumn
		}
		return ClassUnknown
	}
	if isNetworkError(err) {
		return ClassNetwork
	}
	return ClassUnknown
}
