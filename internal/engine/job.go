package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tablesync/internal/syncerr"
)

// JobKind names a synchronizer operation.
type JobKind string

const (
	JobTransfer   JobKind = "transfer"
	JobBackup     JobKind = "backup"
	JobTokenize   JobKind = "tokenize"
	JobDetokenize JobKind = "detokenize"
	JobSeed       JobKind = "seed"
)

// State is a job's position in its lifecycle. States only move forward;
// any failure jumps to StateFailed and the job is never resumed.
type State int

const (
	StateCreated State = iota
	StateConnectionsValidated
	StateSchemaValidated
	StateVolumeChecked
	StateStreaming
	StateWriting
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateCreated:              "created",
	StateConnectionsValidated: "connections_validated",
	StateSchemaValidated:      "schema_validated",
	StateVolumeChecked:        "volume_checked",
	StateStreaming:            "streaming",
	StateWriting:              "writing",
	StateCompleted:            "completed",
	StateFailed:               "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown job state %q", b)
}

// Report summarizes one finished job.
type Report struct {
	ID          string        `json:"id"`
	Kind        JobKind       `json:"kind"`
	Table       string        `json:"table"`
	State       State         `json:"state"`
	Failure     string        `json:"failure,omitempty"`
	RowsRead    int64         `json:"rowsRead"`
	RowsWritten int64         `json:"rowsWritten"`
	Duration    time.Duration `json:"durationNs"`
}

func (r Report) String() string {
	return fmt.Sprintf("%s %s [%s] read=%s written=%s in %s", r.Kind, r.Table, strings.ToUpper(r.State.String()),
		humanize.Comma(r.RowsRead), humanize.Comma(r.RowsWritten), r.Duration.Round(time.Millisecond))
}

// Progress receives row-level progress of the writing phase.
type Progress interface {
	Start(total int)
	Incr()
}

// Recorder receives job outcomes, e.g. for metrics.
type Recorder interface {
	JobFinished(kind string, err error, elapsed time.Duration)
	RowsWritten(kind string, n int)
}

type nopProgress struct{}

func (nopProgress) Start(int) {}
func (nopProgress) Incr()     {}

type nopRecorder struct{}

func (nopRecorder) JobFinished(string, error, time.Duration) {}
func (nopRecorder) RowsWritten(string, int)                  {}

type job struct {
	report   Report
	start    time.Time
	log      *zap.Logger
	progress Progress
	metrics  Recorder
}

func (s *Synchronizer) newJob(kind JobKind, table string) *job {
	id := uuid.NewString()
	j := &job{
		report:   Report{ID: id, Kind: kind, Table: table, State: StateCreated},
		start:    time.Now(),
		log:      s.log.With(zap.String("job", id), zap.String("kind", string(kind)), zap.String("table", table)),
		progress: s.progress,
		metrics:  s.metrics,
	}
	j.log.Info("job created")
	return j
}

func (j *job) advance(st State) {
	if st <= j.report.State {
		return
	}
	j.log.Debug("job state", zap.Stringer("from", j.report.State), zap.Stringer("to", st))
	j.report.State = st
}

func (j *job) read(n int) {
	j.report.RowsRead += int64(n)
}

func (j *job) wrote(n int) {
	j.report.RowsWritten += int64(n)
	j.metrics.RowsWritten(string(j.report.Kind), n)
	for i := 0; i < n; i++ {
		j.progress.Incr()
	}
}

// finish closes the job. Failures are recorded by kind only; the error
// itself is logged by whoever receives it.
func (j *job) finish(err error) (Report, error) {
	j.report.Duration = time.Since(j.start)
	j.metrics.JobFinished(string(j.report.Kind), err, j.report.Duration)
	if err != nil {
		j.report.Failure = syncerr.KindOf(err).String()
		j.log.Info("job failed",
			zap.Stringer("at", j.report.State),
			zap.String("failure", j.report.Failure),
			zap.Int64("rowsWritten", j.report.RowsWritten))
		j.report.State = StateFailed
		return j.report, err
	}
	j.report.State = StateCompleted
	j.log.Info("job completed",
		zap.Int64("rowsRead", j.report.RowsRead),
		zap.Int64("rowsWritten", j.report.RowsWritten),
		zap.Duration("elapsed", j.report.Duration))
	return j.report, nil
}
