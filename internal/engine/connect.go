package engine

import (
	"context"
	"database/sql"
	"strings"

	"tablesync/internal/dialect"
	"tablesync/internal/syncerr"
)

// Opener opens a database handle. sql.Open satisfies it.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Validator opens connections and classifies connect failures.
type Validator struct {
	Open Opener
	// Driver forces a dialect instead of detecting it from the DSN.
	Driver string
}

// Session is one validated connection. The caller must Close it.
type Session struct {
	DB      *sql.DB
	Conn    *sql.Conn
	Dialect dialect.Dialect
}

func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.Conn != nil {
		err = s.Conn.Close()
	}
	if s.DB != nil {
		if cerr := s.DB.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Validate opens a single connection for dsn and pings it. Authentication
// rejection is InvalidConnection with ReasonAuth, transport failure is
// DatabaseUnreachable, anything else is a generic InvalidConnection.
func (v *Validator) Validate(ctx context.Context, dsn string) (*Session, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, syncerr.New(syncerr.InvalidConnection, "The provided connection string is empty.")
	}

	d := dialect.Detect(dsn)
	if v.Driver != "" {
		forced, err := dialect.GetDialect(v.Driver)
		if err != nil {
			return nil, syncerr.Wrap(err, syncerr.InvalidConnection, "The configured driver %q is not supported.", v.Driver)
		}
		d = forced
	}

	open := v.Open
	if open == nil {
		open = sql.Open
	}
	db, err := open(d.Name(), driverDSN(d, dsn))
	if err != nil {
		return nil, classifyConnect(d, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, classifyConnect(d, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, classifyConnect(d, err)
	}
	return &Session{DB: db, Conn: conn, Dialect: d}, nil
}

// driverDSN strips the scheme go-sql-driver/mysql does not accept.
func driverDSN(d dialect.Dialect, dsn string) string {
	if d.Name() == "mysql" {
		return strings.TrimPrefix(strings.TrimSpace(dsn), "mysql://")
	}
	return dsn
}

func classifyConnect(d dialect.Dialect, err error) error {
	switch d.Classify(err) {
	case dialect.ClassAuth:
		return syncerr.Wrap(err, syncerr.InvalidConnection,
			"The provided connection can't reach the database because of authentication failure.").WithReason(syncerr.ReasonAuth)
	case dialect.ClassNetwork:
		return syncerr.Wrap(err, syncerr.DatabaseUnreachable,
			"Network-related error occurred while establishing a connection.")
	}
	return syncerr.Wrap(err, syncerr.InvalidConnection,
		"The provided connection string is invalid or cannot connect to the database.")
}
