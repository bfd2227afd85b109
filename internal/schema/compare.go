package schema

import (
	"strings"

	"tablesync/internal/syncerr"
)

// CompareSchemas checks that target can receive source rows unchanged. It
// reports the first of: column count difference, a source column missing
// from target, a data type difference, a nullability difference.
//
// Only source columns are walked, so a target-only column is reported
// through the count check and nothing else.
func CompareSchemas(source, target TableSchema, sourceTable, targetTable string) error {
	if len(source.Columns) != len(target.Columns) {
		return syncerr.New(syncerr.SchemaMismatch,
			"Mismatch in number of columns: Source table '%s' has %d, while target table '%s' has %d columns.",
			sourceTable, len(source.Columns), targetTable, len(target.Columns))
	}

	for _, src := range source.Columns {
		tgt, ok := target.Column(src.Name)
		if !ok {
			return syncerr.New(syncerr.SchemaMismatch,
				"Column '%s' exists in source table '%s' but not in target table '%s'.",
				src.Name, sourceTable, targetTable)
		}
		if !strings.EqualFold(src.DataType, tgt.DataType) {
			return syncerr.New(syncerr.SchemaMismatch,
				"Data type mismatch for column '%s': Source table has '%s' but target table has '%s'.",
				src.Name, src.DataType, tgt.DataType)
		}
		if src.Nullable != tgt.Nullable {
			return syncerr.New(syncerr.SchemaMismatch,
				"Nullability mismatch for column '%s': Source table indicates IsNullable=%t but target table indicates IsNullable=%t.",
				src.Name, src.Nullable, tgt.Nullable)
		}
	}
	return nil
}
