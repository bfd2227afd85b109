package dialect

import (
	"fmt"
	"strings"
)

// GetDialect returns the Dialect implementation for a driver name.
func GetDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return &PostgresDialect{}, nil
	case "sqlserver", "mssql":
		return &MSSQLDialect{}, nil
	case "oracle":
		return &OracleDialect{}, nil
	case "mysql":
		return &MysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Detect picks a dialect from the shape of a connection string.
// Unrecognized strings are treated as Postgres.
func Detect(dsn string) Dialect {
	s := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return &PostgresDialect{}
	case strings.HasPrefix(s, "sqlserver://"), strings.HasPrefix(s, "mssql://"):
		return &MSSQLDialect{}
	case strings.HasPrefix(s, "oracle://"):
		return &OracleDialect{}
	case strings.HasPrefix(s, "mysql://"), strings.Contains(s, "@tcp("), strings.Contains(s, "@unix("):
		return &MysqlDialect{}
	default:
		return &PostgresDialect{}
	}
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
