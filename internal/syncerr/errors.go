// Package syncerr holds the closed set of failure kinds raised by the
// synchronization engine and their translation into API problem codes.
package syncerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of engine failure.
type Kind int

const (
	Unclassified Kind = iota
	InvalidConnection
	DatabaseUnreachable
	InvalidTable
	InvalidColumn
	SchemaMismatch
	DataIntegrityViolation
	LargeDataVolume
	AlgorithmIncompatibility
	TransactionFailure
	InvalidRequest
)

var kindNames = map[Kind]string{
	Unclassified:             "Unclassified",
	InvalidConnection:        "InvalidConnection",
	DatabaseUnreachable:      "DatabaseUnreachable",
	InvalidTable:             "InvalidTable",
	InvalidColumn:            "InvalidColumn",
	SchemaMismatch:           "SchemaMismatch",
	DataIntegrityViolation:   "DataIntegrityViolation",
	LargeDataVolume:          "LargeDataVolume",
	AlgorithmIncompatibility: "AlgorithmIncompatibility",
	TransactionFailure:       "TransactionFailure",
	InvalidRequest:           "InvalidRequest",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Reason narrows a Kind. Only InvalidConnection uses it today.
type Reason string

const (
	ReasonNone Reason = ""
	ReasonAuth Reason = "auth"
)

// Error is the engine's typed failure. Msg is safe to show to API callers;
// Err carries the underlying cause for server-side logs.
type Error struct {
	Kind   Kind
	Reason Reason
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error without an underlying cause.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(cause error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// WithReason sets the Reason and returns e for chaining.
func (e *Error) WithReason(r Reason) *Error {
	e.Reason = r
	return e
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or Unclassified if there is none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Unclassified
}

// Is reports whether err carries an *Error of the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var se *Error
		if !errors.As(err, &se) {
			return false
		}
		if se.Kind == kind {
			return true
		}
		err = se.Err
	}
	return false
}
