package syncerr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"tablesync/internal/syncerr"
)

func TestKindOfUsesOutermostError(t *testing.T) {
	inner := syncerr.New(syncerr.AlgorithmIncompatibility, "bad key")
	outer := syncerr.Wrap(inner, syncerr.TransactionFailure, "transfer failed")
	wrapped := fmt.Errorf("job: %w", outer)

	if got := syncerr.KindOf(wrapped); got != syncerr.TransactionFailure {
		t.Errorf("KindOf = %v, want TransactionFailure", got)
	}
	if !syncerr.Is(wrapped, syncerr.AlgorithmIncompatibility) {
		t.Error("expected AlgorithmIncompatibility in chain")
	}
	if syncerr.Is(wrapped, syncerr.SchemaMismatch) {
		t.Error("did not expect SchemaMismatch in chain")
	}
	if got := syncerr.KindOf(errors.New("plain")); got != syncerr.Unclassified {
		t.Errorf("KindOf(plain) = %v, want Unclassified", got)
	}
}

func TestTranslateCodes(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{syncerr.New(syncerr.InvalidConnection, "x"), "DB_CONN_001", http.StatusBadRequest},
		{syncerr.New(syncerr.InvalidConnection, "x").WithReason(syncerr.ReasonAuth), "DB_AUTH_001", http.StatusBadRequest},
		{syncerr.New(syncerr.DatabaseUnreachable, "x"), "DB_NET_001", http.StatusBadRequest},
		{syncerr.New(syncerr.InvalidTable, "x"), "DB_TBL_404", http.StatusBadRequest},
		{syncerr.New(syncerr.InvalidColumn, "x"), "DB_COL_404", http.StatusBadRequest},
		{syncerr.New(syncerr.SchemaMismatch, "x"), "DB_SCHEMA_001", http.StatusBadRequest},
		{syncerr.New(syncerr.DataIntegrityViolation, "x"), "DB_INTEGRITY_001", http.StatusBadRequest},
		{syncerr.New(syncerr.LargeDataVolume, "x"), "DB_VOL_001", http.StatusBadRequest},
		{syncerr.New(syncerr.AlgorithmIncompatibility, "x"), "ENC_001", http.StatusBadRequest},
		{syncerr.New(syncerr.TransactionFailure, "x"), "DB_TXN_001", http.StatusBadRequest},
		{syncerr.New(syncerr.Unclassified, "x"), "UNEXPECTED_500", http.StatusInternalServerError},
		{errors.New("boom"), "UNEXPECTED_500", http.StatusInternalServerError},
	}
	for _, c := range cases {
		p, _ := syncerr.Translate(c.err)
		if p.Code != c.code || p.Status != c.status {
			t.Errorf("Translate(%v) = %s/%d, want %s/%d", c.err, p.Code, p.Status, c.code, c.status)
		}
	}
}

func TestTranslateWithholdsUnexpectedDetail(t *testing.T) {
	_, detail := syncerr.Translate(errors.New("pq: password=secret leaked"))
	if detail != syncerr.UnexpectedDetail {
		t.Errorf("detail = %q", detail)
	}

	_, detail = syncerr.Translate(syncerr.Wrap(errors.New("driver text"), syncerr.LargeDataVolume, "too many rows"))
	if detail != "too many rows" {
		t.Errorf("detail = %q, want the engine message only", detail)
	}
}
