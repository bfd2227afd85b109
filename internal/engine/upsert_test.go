package engine_test

import (
	"testing"

	"tablesync/internal/dialect"
	"tablesync/internal/engine"
	"tablesync/internal/syncerr"
)

func row(id int64, email string) engine.Row {
	return engine.NewRow([]string{"ID", "email"}, []engine.Value{engine.Integer(id), engine.Text(email)})
}

func TestBuildUpsert(t *testing.T) {
	d := &dialect.PostgresDialect{}
	stmt, err := engine.BuildUpsert(d, "public", "accounts",
		[]engine.Row{row(1, "a@x.io"), row(2, "b@x.io")}, []string{"id"})
	if err != nil {
		t.Fatal(err)
	}
	want := `INSERT INTO "public"."accounts" ("ID", "email") VALUES ($1, $2), ($3, $4) ON CONFLICT ("ID") DO UPDATE SET "email" = EXCLUDED."email"`
	if stmt.SQL != want {
		t.Errorf("SQL:\n got %s\nwant %s", stmt.SQL, want)
	}
	if len(stmt.Args) != 4 || stmt.Args[0] != int64(1) || stmt.Args[3] != "b@x.io" {
		t.Errorf("args = %v", stmt.Args)
	}
}

func TestBuildUpsertRejectsMissingKey(t *testing.T) {
	d := &dialect.PostgresDialect{}
	rows := []engine.Row{engine.NewRow([]string{"email"}, []engine.Value{engine.Text("a@x.io")})}

	stmt, err := engine.BuildUpsert(d, "public", "accounts", rows, []string{"id"})
	if syncerr.KindOf(err) != syncerr.TransactionFailure {
		t.Fatalf("err = %v, want TransactionFailure", err)
	}
	if stmt.SQL != "" || stmt.Args != nil {
		t.Errorf("statement emitted: %+v", stmt)
	}
}

func TestBuildUpsertRejectsRaggedRows(t *testing.T) {
	d := &dialect.PostgresDialect{}
	rows := []engine.Row{
		row(1, "a@x.io"),
		engine.NewRow([]string{"id"}, []engine.Value{engine.Integer(2)}),
	}
	if _, err := engine.BuildUpsert(d, "public", "accounts", rows, []string{"id"}); syncerr.KindOf(err) != syncerr.TransactionFailure {
		t.Errorf("err = %v, want TransactionFailure", err)
	}
	if _, err := engine.BuildUpsert(d, "public", "accounts", nil, []string{"id"}); syncerr.KindOf(err) != syncerr.TransactionFailure {
		t.Errorf("empty rows: err = %v", err)
	}
}
