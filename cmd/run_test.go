package cmd

import (
	"errors"
	"testing"

	"tablesync/internal/syncerr"
)

func TestDescribe(t *testing.T) {
	err := syncerr.New(syncerr.LargeDataVolume, "The table 'users' has 200,000 rows.")
	if got, want := describe(err), "Large data volume (DB_VOL_001): The table 'users' has 200,000 rows."; got != want {
		t.Errorf("describe = %q, want %q", got, want)
	}
	if got := describe(errors.New("encryption.key is missing or empty")); got != "encryption.key is missing or empty" {
		t.Errorf("describe(plain) = %q", got)
	}
}

func TestProgressBarStop(t *testing.T) {
	bar := newProgressBar("test")
	bar.Start(0)
	bar.Incr()
	if bar.progress != nil {
		t.Fatal("empty job started a bar")
	}

	bar.Start(2)
	bar.Incr()
	bar.Incr()
	if got := bar.bar.Current(); got != 2 {
		t.Errorf("Current = %d", got)
	}
	bar.Stop()
	bar.Stop()
}
