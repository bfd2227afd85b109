package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"tablesync/internal/schema"
	"tablesync/internal/syncerr"
)

// SeedRequest fills Table with Count generated rows. A non-zero Seed makes
// the generated values repeatable.
type SeedRequest struct {
	DSN   string
	Table string
	Count int
	Seed  int64
}

// integer key types whose range caps how many rows can be seeded.
var keyTypeMax = map[string]int64{
	"tinyint":   127,
	"smallint":  32767,
	"mediumint": 8388607,
	"int":       2147483647,
	"integer":   2147483647,
}

// Seed inserts generated rows into an existing table through the same
// upsert path the other jobs use. The table must stay within sync.max_rows
// after seeding. A single integer primary key is filled sequentially from
// its current maximum.
func (s *Synchronizer) Seed(ctx context.Context, req SeedRequest) (Report, error) {
	j := s.newJob(JobSeed, req.Table)

	if req.Count <= 0 {
		return j.finish(syncerr.New(syncerr.InvalidRequest, "The row count must be positive, got %d.", req.Count))
	}

	sess, err := s.validator.Validate(ctx, req.DSN)
	if err != nil {
		return j.finish(err)
	}
	defer sess.Close()
	j.advance(StateConnectionsValidated)

	d := sess.Dialect
	schemaName := d.GetSchemaName(s.cfg.Sync.Schema)
	in := schema.NewIntrospector(d)

	table, err := in.ResolveTable(ctx, sess.Conn, schemaName, req.Table)
	if err != nil {
		return j.finish(classifyRead(d, err))
	}
	ts, err := in.GetSchema(ctx, sess.Conn, schemaName, table)
	if err != nil {
		return j.finish(classifyRead(d, err))
	}
	keys, err := in.GetPrimaryKeyColumns(ctx, sess.Conn, schemaName, table)
	if err != nil {
		return j.finish(classifyRead(d, err))
	}

	existing, err := in.RowCount(ctx, sess.Conn, schemaName, table)
	if err != nil {
		return j.finish(classifyRead(d, err))
	}
	if existing+int64(req.Count) > s.cfg.Sync.MaxRows {
		return j.finish(syncerr.New(syncerr.LargeDataVolume,
			"Seeding %s rows into '%s' would bring it to %s rows, above the maximum allowed %s.",
			humanize.Comma(int64(req.Count)), table, humanize.Comma(existing+int64(req.Count)), humanize.Comma(s.cfg.Sync.MaxRows)))
	}
	j.advance(StateVolumeChecked)

	var seqKey *schema.ColumnDescriptor
	count := int64(req.Count)
	var next int64 = 1
	if len(keys) == 1 {
		if c, ok := ts.Column(keys[0]); ok && isIntegerType(c.DataType) {
			seqKey = &c
			if next, err = s.maxKey(ctx, sess, schemaName, table, c.Name); err != nil {
				return j.finish(classifyRead(d, err))
			}
			next++
			if limit, ok := keyTypeMax[strings.ToLower(c.DataType)]; ok && next+count-1 > limit {
				count = limit - next + 1
				if count < 0 {
					count = 0
				}
				j.log.Info("seed capped by key type",
					zap.String("column", c.Name), zap.String("type", c.DataType), zap.Int64("rows", count))
			}
		}
	}

	gen := NewGenerator(req.Seed)
	cols := ts.Names()
	rows := make([]Row, 0, count)
	for i := int64(0); i < count; i++ {
		vals := make([]Value, len(ts.Columns))
		for n, c := range ts.Columns {
			if seqKey != nil && c.Name == seqKey.Name {
				vals[n] = Integer(next + i)
				continue
			}
			vals[n] = gen.Value(c)
		}
		rows = append(rows, NewRow(cols, vals))
	}

	j.advance(StateWriting)
	if err := s.upsertRows(ctx, j, sess, schemaName, table, rows, keys); err != nil {
		return j.finish(err)
	}

	if after, err := in.RowCount(ctx, sess.Conn, schemaName, table); err == nil {
		j.log.Debug("seed verified", zap.Int64("before", existing), zap.Int64("after", after))
	}
	return j.finish(nil)
}

func (s *Synchronizer) maxKey(ctx context.Context, sess *Session, schemaName, table, col string) (int64, error) {
	d := sess.Dialect
	q := fmt.Sprintf("SELECT MAX(%s) FROM %s", d.QuoteIdent(col), d.QuoteTable(schemaName, table))
	var top sql.NullInt64
	if err := sess.Conn.QueryRowContext(ctx, q).Scan(&top); err != nil {
		return 0, fmt.Errorf("failed to read max %s of %s: %w", col, table, err)
	}
	return top.Int64, nil
}

func isIntegerType(dataType string) bool {
	t := strings.ToLower(dataType)
	return strings.Contains(t, "int") || t == "number"
}
