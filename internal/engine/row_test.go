package engine_test

import (
	"testing"
	"time"

	"tablesync/internal/engine"
)

func TestFromDriver(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		src    interface{}
		dbType string
		kind   engine.ValueKind
		str    string
	}{
		{nil, "TEXT", engine.KindNull, "NULL"},
		{[]byte("ada"), "VARCHAR", engine.KindText, "ada"},
		{[]byte{0xde, 0xad}, "BYTEA", engine.KindBytes, "dead"},
		{int64(42), "INT8", engine.KindInteger, "42"},
		{1.5, "NUMERIC", engine.KindFloat, "1.5"},
		{true, "BOOL", engine.KindBoolean, "true"},
		{ts, "TIMESTAMP", engine.KindTime, "2024-05-01T12:00:00Z"},
	}
	for _, c := range cases {
		v := engine.FromDriver(c.src, c.dbType)
		if v.Kind() != c.kind || v.String() != c.str {
			t.Errorf("FromDriver(%v, %s) = %v %q", c.src, c.dbType, v.Kind(), v.String())
		}
	}
}

func TestRowLookupIgnoresCase(t *testing.T) {
	r := engine.NewRow([]string{"Id", "Email"}, []engine.Value{engine.Integer(1), engine.Text("a@x.io")})

	v, ok := r.Get("email")
	if s, _ := v.Text(); !ok || s != "a@x.io" {
		t.Errorf("Get(email) = %v, %v", v, ok)
	}
	if !r.Set("EMAIL", engine.Text("b@x.io")) {
		t.Fatal("Set(EMAIL) reported missing column")
	}
	if v, _ := r.Get("Email"); v.String() != "b@x.io" {
		t.Errorf("after Set: %v", v)
	}
	if r.Set("phone", engine.Null()) {
		t.Error("Set on unknown column should fail")
	}
	if v, _ := r.Get("id"); v.Arg() != int64(1) {
		t.Errorf("Arg = %v", v.Arg())
	}
}
