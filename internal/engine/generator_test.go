package engine_test

import (
	"strings"
	"testing"

	"tablesync/internal/engine"
	"tablesync/internal/schema"
)

func TestGeneratorByMeaningAndType(t *testing.T) {
	g := engine.NewGenerator(7)

	email := g.Value(schema.ColumnDescriptor{Name: "cust_mail", DataType: "character varying"})
	if s, ok := email.Text(); !ok || !strings.Contains(s, "@") {
		t.Errorf("email column = %v", email)
	}
	if v := g.Value(schema.ColumnDescriptor{Name: "qty", DataType: "integer"}); v.Kind() != engine.KindInteger {
		t.Errorf("integer column kind = %v", v.Kind())
	}
	if v := g.Value(schema.ColumnDescriptor{Name: "created_at", DataType: "timestamp without time zone"}); v.Kind() != engine.KindTime {
		t.Errorf("timestamp column kind = %v", v.Kind())
	}
	if v := g.Value(schema.ColumnDescriptor{Name: "is_active", DataType: "boolean"}); v.Kind() != engine.KindBoolean {
		t.Errorf("boolean column kind = %v", v.Kind())
	}
	if v := g.Value(schema.ColumnDescriptor{Name: "shape", DataType: "geometry", Nullable: true}); !v.IsNull() {
		t.Errorf("unknown nullable type = %v", v)
	}
}

func TestGeneratorIsRepeatable(t *testing.T) {
	col := schema.ColumnDescriptor{Name: "full_nm", DataType: "text"}
	a := engine.NewGenerator(99).Value(col)
	b := engine.NewGenerator(99).Value(col)
	if a.String() != b.String() {
		t.Errorf("same seed produced %q and %q", a, b)
	}
}
