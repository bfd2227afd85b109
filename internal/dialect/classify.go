package dialect

import (
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"
)

// Class is the driver-independent category of a database failure.
type Class int

const (
	ClassUnknown Class = iota
	ClassAuth
	ClassNetwork
	ClassIntegrity
	ClassUndefinedTable
	ClassUndefinedColumn
)

func (c Class) String() string {
	switch c {
	case ClassAuth:
		return "auth"
	case ClassNetwork:
		return "network"
	case ClassIntegrity:
		return "integrity"
	case ClassUndefinedTable:
		return "undefined_table"
	case ClassUndefinedColumn:
		return "undefined_column"
	default:
		return "unknown"
	}
}

// isNetworkError reports transport-level failures. A failed host lookup is
// not one: it means the connection string names a host that does not exist.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, driver.ErrBadConn)
}
