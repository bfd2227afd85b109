package syncerr

import (
	"errors"
	"net/http"
)

// Problem describes how a failure is presented to API callers.
type Problem struct {
	Code   string
	Status int
	Title  string
	Type   string
}

const (
	problemTypeBlank    = "about:blank"
	problemTypeInternal = "https://example.com/problems/internal-error"

	// UnexpectedDetail replaces the message of unclassified failures.
	UnexpectedDetail = "An internal server error occurred. Please contact support."
)

var problems = map[Kind]Problem{
	InvalidConnection:        {Code: "DB_CONN_001", Status: http.StatusBadRequest, Title: "Invalid connection string"},
	DatabaseUnreachable:      {Code: "DB_NET_001", Status: http.StatusBadRequest, Title: "Database unreachable"},
	InvalidTable:             {Code: "DB_TBL_404", Status: http.StatusBadRequest, Title: "Invalid table"},
	InvalidColumn:            {Code: "DB_COL_404", Status: http.StatusBadRequest, Title: "Invalid column"},
	SchemaMismatch:           {Code: "DB_SCHEMA_001", Status: http.StatusBadRequest, Title: "Schema Mismatch Detected"},
	DataIntegrityViolation:   {Code: "DB_INTEGRITY_001", Status: http.StatusBadRequest, Title: "Data integrity violation"},
	LargeDataVolume:          {Code: "DB_VOL_001", Status: http.StatusBadRequest, Title: "Large data volume"},
	AlgorithmIncompatibility: {Code: "ENC_001", Status: http.StatusBadRequest, Title: "Algorithm mismatch detected"},
	TransactionFailure:       {Code: "DB_TXN_001", Status: http.StatusBadRequest, Title: "Transaction failure"},
	InvalidRequest:           {Code: "REQ_001", Status: http.StatusBadRequest, Title: "Invalid request"},
}

var authProblem = Problem{Code: "DB_AUTH_001", Status: http.StatusBadRequest, Title: "Authentication failed"}

var unexpectedProblem = Problem{
	Code:   "UNEXPECTED_500",
	Status: http.StatusInternalServerError,
	Title:  "An unexpected error occurred",
	Type:   problemTypeInternal,
}

// Translate maps err to its problem descriptor and the detail that may be
// shown to the caller. Unclassified failures never expose their message.
func Translate(err error) (Problem, string) {
	var se *Error
	if !errors.As(err, &se) {
		return unexpectedProblem, UnexpectedDetail
	}
	p, ok := problems[se.Kind]
	if !ok {
		return unexpectedProblem, UnexpectedDetail
	}
	if se.Kind == InvalidConnection && se.Reason == ReasonAuth {
		p = authProblem
	}
	p.Type = problemTypeBlank
	return p, se.Msg
}
