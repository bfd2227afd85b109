package engine

import (
	"strings"

	"tablesync/internal/dialect"
	"tablesync/internal/syncerr"
)

// Statement is a parameterized SQL statement with its bound values.
type Statement struct {
	SQL  string
	Args []interface{}
}

// BuildUpsert renders one statement that inserts rows into table and, on a
// primary key conflict, overwrites every non-key column. The column list is
// taken from the first row. Every row must carry every key and every column
// of the first row; otherwise no statement is produced. With no keys the
// statement is a plain insert.
func BuildUpsert(d dialect.Dialect, schemaName, table string, rows []Row, keys []string) (Statement, error) {
	if len(rows) == 0 {
		return Statement{}, syncerr.New(syncerr.TransactionFailure, "No rows to upsert into %s.", table)
	}
	cols := rows[0].Columns()

	resolvedKeys := make([]string, len(keys))
	for i, k := range keys {
		idx := indexFold(cols, k)
		if idx < 0 {
			return Statement{}, syncerr.New(syncerr.TransactionFailure,
				"Primary key column %s is missing from the rows written to %s.", k, table)
		}
		resolvedKeys[i] = cols[idx]
	}

	args := make([]interface{}, 0, len(rows)*len(cols))
	for n, r := range rows {
		for _, c := range cols {
			v, ok := r.Get(c)
			if !ok {
				return Statement{}, syncerr.New(syncerr.TransactionFailure,
					"Row %d written to %s has no value for column %s.", n+1, table, c)
			}
			args = append(args, v.Arg())
		}
	}

	return Statement{
		SQL:  d.UpsertQuery(schemaName, table, cols, resolvedKeys, len(rows)),
		Args: args,
	}, nil
}

// batchSize caps rows per statement by the configured size and the
// dialect's bind parameter limit.
func batchSize(d dialect.Dialect, configured, cols int) int {
	n := configured
	if n <= 0 {
		n = 1
	}
	if cols > 0 {
		if limit := d.MaxParams() / cols; limit < n {
			n = limit
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

func indexFold(list []string, name string) int {
	for i, s := range list {
		if s == name {
			return i
		}
	}
	for i, s := range list {
		if strings.EqualFold(s, name) {
			return i
		}
	}
	return -1
}
