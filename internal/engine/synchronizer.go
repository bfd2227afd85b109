package engine

import (
	"context"
	"errors"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"tablesync/internal/cipher"
	"tablesync/internal/config"
	"tablesync/internal/dialect"
	"tablesync/internal/schema"
	"tablesync/internal/syncerr"
)

const (
	backupSuffix = "_backup"
	idColumn     = "id"
)

// TransferRequest copies SourceTable into TargetTable, tokenizing Columns on
// the way.
type TransferRequest struct {
	SourceDSN   string
	TargetDSN   string
	SourceTable string
	TargetTable string
	Columns     []string
}

// BackupRequest copies Table into <Table>_backup. Schema overrides the
// configured schema when set.
type BackupRequest struct {
	DSN    string
	Table  string
	Schema string
}

// ProcessRequest tokenizes or detokenizes Columns of Table in place.
type ProcessRequest struct {
	DSN     string
	Table   string
	Columns []string
}

// Synchronizer runs transfer, backup, tokenize and detokenize jobs. Each job
// holds one connection per database for its whole run and processes rows
// sequentially. Concurrent jobs on the same table are not coordinated.
type Synchronizer struct {
	cfg       *config.Config
	validator *Validator
	cipher    *cipher.FieldCipher
	log       *zap.Logger
	metrics   Recorder
	progress  Progress
}

type Option func(*Synchronizer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) { s.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Synchronizer) { s.metrics = r }
}

func WithProgress(p Progress) Option {
	return func(s *Synchronizer) { s.progress = p }
}

// WithOpener replaces sql.Open, mostly for tests.
func WithOpener(open Opener) Option {
	return func(s *Synchronizer) { s.validator.Open = open }
}

func New(cfg *config.Config, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		cfg:       cfg,
		validator: &Validator{Driver: cfg.Sync.Driver},
		cipher:    cipher.New([]byte(cfg.Encryption.Key), []byte(cfg.Encryption.IV)),
		log:       zap.NewNop(),
		metrics:   nopRecorder{},
		progress:  nopProgress{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Transfer validates both connections, requires identical table shapes,
// checks the source volume, then upserts every source row into the target by
// the target's primary key. Values of the requested columns are tokenized
// unless they already are.
func (s *Synchronizer) Transfer(ctx context.Context, req TransferRequest) (Report, error) {
	j := s.newJob(JobTransfer, req.SourceTable)

	src, err := s.validator.Validate(ctx, req.SourceDSN)
	if err != nil {
		return j.finish(err)
	}
	defer src.Close()
	tgt, err := s.validator.Validate(ctx, req.TargetDSN)
	if err != nil {
		return j.finish(err)
	}
	defer tgt.Close()
	j.advance(StateConnectionsValidated)

	srcSchemaName := src.Dialect.GetSchemaName(s.cfg.Sync.Schema)
	tgtSchemaName := tgt.Dialect.GetSchemaName(s.cfg.Sync.Schema)
	srcIn := schema.NewIntrospector(src.Dialect)
	tgtIn := schema.NewIntrospector(tgt.Dialect)

	srcTable, err := srcIn.ResolveTable(ctx, src.Conn, srcSchemaName, req.SourceTable)
	if err != nil {
		return j.finish(classifyRead(src.Dialect, err))
	}
	tgtTable, err := tgtIn.ResolveTable(ctx, tgt.Conn, tgtSchemaName, req.TargetTable)
	if err != nil {
		return j.finish(classifyRead(tgt.Dialect, err))
	}

	srcSchema, err := srcIn.GetSchema(ctx, src.Conn, srcSchemaName, srcTable)
	if err != nil {
		return j.finish(classifyRead(src.Dialect, err))
	}
	tgtSchema, err := tgtIn.GetSchema(ctx, tgt.Conn, tgtSchemaName, tgtTable)
	if err != nil {
		return j.finish(classifyRead(tgt.Dialect, err))
	}
	if err := schema.CompareSchemas(srcSchema, tgtSchema, srcTable, tgtTable); err != nil {
		return j.finish(err)
	}
	targetCols, err := targetColumns(srcSchema, tgtSchema, tgtTable)
	if err != nil {
		return j.finish(err)
	}
	j.advance(StateSchemaValidated)

	tokenized, err := schema.ResolveColumns(srcSchema, req.Columns)
	if err != nil {
		return j.finish(err)
	}

	if err := s.checkVolume(ctx, srcIn, src, srcSchemaName, srcTable); err != nil {
		return j.finish(err)
	}
	j.advance(StateVolumeChecked)

	j.advance(StateStreaming)
	rows, err := s.selectRows(ctx, src, srcSchemaName, srcTable, srcSchema.Names())
	if err != nil {
		return j.finish(err)
	}
	j.read(len(rows))

	for _, r := range rows {
		for _, c := range tokenized {
			if err := s.transform(r, c, false); err != nil {
				return j.finish(syncerr.Wrap(err, syncerr.TransactionFailure,
					"An unexpected transaction failure occurred while transferring data."))
			}
		}
	}

	for i, r := range rows {
		rows[i] = r.renamed(targetCols)
	}

	keys, err := tgtIn.GetPrimaryKeyColumns(ctx, tgt.Conn, tgtSchemaName, tgtTable)
	if err != nil {
		return j.finish(classifyRead(tgt.Dialect, err))
	}

	j.advance(StateWriting)
	if err := s.upsertRows(ctx, j, tgt, tgtSchemaName, tgtTable, rows, keys); err != nil {
		return j.finish(err)
	}
	return j.finish(nil)
}

// Backup upserts every row of req.Table into <table>_backup in the same
// schema, creating the backup table and its primary key on id when needed.
// Rows are never deleted from the backup, so repeated runs converge on the
// current source rows.
func (s *Synchronizer) Backup(ctx context.Context, req BackupRequest) (Report, error) {
	j := s.newJob(JobBackup, req.Table)

	sess, err := s.validator.Validate(ctx, req.DSN)
	if err != nil {
		return j.finish(err)
	}
	defer sess.Close()
	j.advance(StateConnectionsValidated)

	d := sess.Dialect
	schemaName := req.Schema
	if schemaName == "" {
		schemaName = s.cfg.Sync.Schema
	}
	schemaName = d.GetSchemaName(schemaName)
	in := schema.NewIntrospector(d)

	table, err := in.ResolveTable(ctx, sess.Conn, schemaName, req.Table)
	if err != nil {
		return j.finish(classifyRead(d, err))
	}
	if err := s.checkVolume(ctx, in, sess, schemaName, table); err != nil {
		return j.finish(err)
	}
	j.advance(StateVolumeChecked)

	srcSchema, err := in.GetSchema(ctx, sess.Conn, schemaName, table)
	if err != nil {
		return j.finish(classifyRead(d, err))
	}

	backup, keys, err := s.ensureBackupTable(ctx, in, sess, schemaName, table, srcSchema)
	if err != nil {
		return j.finish(err)
	}

	j.advance(StateStreaming)
	rows, err := s.selectRows(ctx, sess, schemaName, table, srcSchema.Names())
	if err != nil {
		return j.finish(err)
	}
	j.read(len(rows))

	j.advance(StateWriting)
	if err := s.upsertRows(ctx, j, sess, schemaName, backup, rows, keys); err != nil {
		return j.finish(err)
	}
	return j.finish(nil)
}

// ensureBackupTable returns the backup table name and its primary key,
// creating the table or the key as needed.
func (s *Synchronizer) ensureBackupTable(ctx context.Context, in *schema.Introspector, sess *Session,
	schemaName, table string, srcSchema schema.TableSchema) (string, []string, error) {
	d := sess.Dialect

	backup, err := in.ResolveTable(ctx, sess.Conn, schemaName, table+backupSuffix)
	switch {
	case syncerr.KindOf(err) == syncerr.InvalidTable:
		id, ok := srcSchema.Column(idColumn)
		if !ok {
			return "", nil, syncerr.New(syncerr.InvalidColumn,
				"The table %s has no %s column to key its backup on.", table, idColumn)
		}
		backup = table + backupSuffix
		if _, err := sess.Conn.ExecContext(ctx, d.CreateBackupQuery(schemaName, table, backup)); err != nil {
			return "", nil, classifyWrite(d, err, backup)
		}
		if _, err := sess.Conn.ExecContext(ctx, d.AddPrimaryKeyQuery(schemaName, backup, []string{id.Name})); err != nil {
			return "", nil, classifyWrite(d, err, backup)
		}
		s.log.Debug("created backup table", zap.String("table", backup))
		return backup, []string{id.Name}, nil
	case err != nil:
		return "", nil, classifyRead(d, err)
	}

	keys, err := in.GetPrimaryKeyColumns(ctx, sess.Conn, schemaName, backup)
	if err != nil {
		return "", nil, classifyRead(d, err)
	}
	if len(keys) > 0 {
		return backup, keys, nil
	}

	backupSchema, err := in.GetSchema(ctx, sess.Conn, schemaName, backup)
	if err != nil {
		return "", nil, classifyRead(d, err)
	}
	id, ok := backupSchema.Column(idColumn)
	if !ok {
		return "", nil, syncerr.New(syncerr.InvalidColumn,
			"The backup table %s has no %s column to add a primary key on.", backup, idColumn)
	}
	if _, err := sess.Conn.ExecContext(ctx, d.AddPrimaryKeyQuery(schemaName, backup, []string{id.Name})); err != nil {
		return "", nil, classifyWrite(d, err, backup)
	}
	return backup, []string{id.Name}, nil
}

// Tokenize encrypts the configured fields among req.Columns in place.
func (s *Synchronizer) Tokenize(ctx context.Context, req ProcessRequest) (Report, error) {
	return s.ProcessTable(ctx, req, false)
}

// Detokenize decrypts the configured fields among req.Columns in place.
func (s *Synchronizer) Detokenize(ctx context.Context, req ProcessRequest) (Report, error) {
	return s.ProcessTable(ctx, req, true)
}

// ProcessTable rewrites the selected columns of every row through the
// cipher. When isTokenized is set, tokenized values are decrypted; otherwise
// plain values are encrypted. Only configured encryption fields change; each
// row is written back with its own UPDATE keyed on id.
func (s *Synchronizer) ProcessTable(ctx context.Context, req ProcessRequest, isTokenized bool) (Report, error) {
	kind := JobTokenize
	if isTokenized {
		kind = JobDetokenize
	}
	j := s.newJob(kind, req.Table)

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

	requested := req.Columns
	if indexFold(requested, idColumn) < 0 {
		requested = append([]string{idColumn}, requested...)
	}
	cols, err := schema.ResolveColumns(ts, requested)
	if err != nil {
		return j.finish(err)
	}
	idCol := cols[indexFold(cols, idColumn)]

	if err := s.checkVolume(ctx, in, sess, schemaName, table); err != nil {
		return j.finish(err)
	}
	j.advance(StateVolumeChecked)

	j.advance(StateStreaming)
	rows, err := s.selectRows(ctx, sess, schemaName, table, cols)
	if err != nil {
		return j.finish(err)
	}
	j.read(len(rows))

	var fields, setCols []string
	for _, c := range cols {
		if c == idCol {
			continue
		}
		setCols = append(setCols, c)
		if s.cfg.IsField(c) {
			fields = append(fields, c)
		}
	}

	for _, r := range rows {
		for _, c := range fields {
			if err := s.transform(r, c, isTokenized); err != nil {
				return j.finish(err)
			}
		}
	}

	j.advance(StateWriting)
	if len(setCols) == 0 {
		return j.finish(nil)
	}

	query := d.UpdateQuery(schemaName, table, setCols, idCol)
	argCols := append(append([]string(nil), setCols...), idCol)
	j.progress.Start(len(rows))
	for _, r := range rows {
		args := make([]interface{}, 0, len(argCols))
		for _, c := range argCols {
			v, ok := r.Get(c)
			if !ok {
				return j.finish(syncerr.New(syncerr.TransactionFailure,
					"A row read from %s has no value for column %s.", table, c))
			}
			args = append(args, v.Arg())
		}
		if _, err := sess.Conn.ExecContext(ctx, query, args...); err != nil {
			return j.finish(classifyWrite(d, err, table))
		}
		j.wrote(1)
	}
	return j.finish(nil)
}

// transform runs column c of r through the cipher. Only text values change;
// NULLs and other kinds pass through.
func (s *Synchronizer) transform(r Row, c string, decrypt bool) error {
	v, ok := r.Get(c)
	if !ok {
		return nil
	}
	text, ok := v.Text()
	if !ok {
		return nil
	}

	var out string
	var err error
	switch {
	case decrypt && s.cipher.IsEncrypted(text):
		out, err = s.cipher.Decrypt(text)
	case !decrypt && !s.cipher.IsEncrypted(text):
		out, err = s.cipher.Encrypt(text)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	r.Set(c, Text(out))
	return nil
}

// checkVolume rejects tables holding more rows than sync.max_rows. It runs
// before any data row is selected or written.
func (s *Synchronizer) checkVolume(ctx context.Context, in *schema.Introspector, sess *Session, schemaName, table string) error {
	n, err := in.RowCount(ctx, sess.Conn, schemaName, table)
	if err != nil {
		return classifyRead(sess.Dialect, err)
	}
	if n > s.cfg.Sync.MaxRows {
		return syncerr.New(syncerr.LargeDataVolume,
			"The table '%s' has %s rows which exceeds the maximum allowed %s for a single transfer operation.",
			table, humanize.Comma(n), humanize.Comma(s.cfg.Sync.MaxRows))
	}
	return nil
}

func (s *Synchronizer) selectRows(ctx context.Context, sess *Session, schemaName, table string, cols []string) ([]Row, error) {
	rs, err := sess.Conn.QueryContext(ctx, sess.Dialect.SelectQuery(schemaName, table, cols))
	if err != nil {
		return nil, classifyRead(sess.Dialect, err)
	}
	defer rs.Close()

	rows, err := scanRows(rs)
	if err != nil {
		return nil, classifyRead(sess.Dialect, err)
	}
	return rows, nil
}

// upsertRows writes rows in batches bounded by sync.batch_size and the
// dialect's parameter limit. A failed batch stops the job; earlier batches
// stay written.
func (s *Synchronizer) upsertRows(ctx context.Context, j *job, sess *Session, schemaName, table string, rows []Row, keys []string) (err error) {
	if len(rows) == 0 {
		return nil
	}
	d := sess.Dialect

	if err := d.BeforeWrite(ctx, sess.Conn, schemaName, table); err != nil {
		return classifyWrite(d, err, table)
	}
	defer func() {
		if aerr := d.AfterWrite(ctx, sess.Conn, schemaName, table); aerr != nil && err == nil {
			err = classifyWrite(d, aerr, table)
		}
	}()

	size := batchSize(d, s.cfg.Sync.BatchSize, rows[0].Len())
	j.progress.Start(len(rows))
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		stmt, err := BuildUpsert(d, schemaName, table, rows[start:end], keys)
		if err != nil {
			return err
		}
		if _, err := sess.Conn.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return classifyWrite(d, err, table)
		}
		j.wrote(end - start)
	}
	return nil
}

// targetColumns spells each source column the way the target catalog does,
// in source order.
func targetColumns(src, tgt schema.TableSchema, tgtTable string) ([]string, error) {
	cols := make([]string, len(src.Columns))
	for i, c := range src.Columns {
		tc, ok := tgt.Column(c.Name)
		if !ok {
			return nil, syncerr.New(syncerr.InvalidColumn,
				"The selected column %s does not exist in table %s.", c.Name, tgtTable)
		}
		cols[i] = tc.Name
	}
	return cols, nil
}

// classifyRead maps a failed catalog or select call. Engine errors pass
// through unchanged.
func classifyRead(d dialect.Dialect, err error) error {
	var se *syncerr.Error
	if errors.As(err, &se) {
		return err
	}
	switch d.Classify(err) {
	case dialect.ClassUndefinedTable:
		return syncerr.Wrap(err, syncerr.InvalidTable, "The provided table does not exist.")
	case dialect.ClassUndefinedColumn:
		return syncerr.Wrap(err, syncerr.InvalidColumn, "The selected column does not exist.")
	case dialect.ClassNetwork:
		return syncerr.Wrap(err, syncerr.DatabaseUnreachable, "Network-related error occurred while reading from the database.")
	}
	return syncerr.Wrap(err, syncerr.TransactionFailure, "An unexpected transaction failure occurred while reading data.")
}

// classifyWrite maps a failed write. Integrity violations abort the job as
// DataIntegrityViolation; unexpected faults become TransactionFailure.
func classifyWrite(d dialect.Dialect, err error, table string) error {
	var se *syncerr.Error
	if errors.As(err, &se) {
		return err
	}
	switch d.Classify(err) {
	case dialect.ClassIntegrity:
		return syncerr.Wrap(err, syncerr.DataIntegrityViolation,
			"Data integrity violation occurred while inserting data into the target table %s.", table)
	case dialect.ClassUndefinedColumn:
		return syncerr.Wrap(err, syncerr.InvalidColumn, "The selected column does not exist.")
	case dialect.ClassUndefinedTable:
		return syncerr.Wrap(err, syncerr.InvalidTable, "The table %s does not exist.", table)
	}
	return syncerr.Wrap(err, syncerr.TransactionFailure,
		"An unexpected transaction failure occurred while transferring data.")
}
