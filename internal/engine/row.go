package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind is the declared kind of a row value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindInteger
	KindFloat
	KindBoolean
	KindBytes
	KindTime
)

// Value is a single column value as read from the store.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
	raw  []byte
	t    time.Time
}

func Null() Value { return Value{kind: KindNull} }
func Text(s string) Value { return Value{kind: KindText, s: s} }
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }
func Bytes(p []byte) Value { return Value{kind: KindBytes, raw: append([]byte(nil), p...)} }
func Timestamp(t time.Time) Value { return Value{kind: KindTime, t: t} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string of a text value.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// Arg returns the value in a form database/sql can bind.
func (v Value) Arg() driver.Value {
	switch v.kind {
	case KindText:
		return v.s
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBoolean:
		return v.b
	case KindBytes:
		return v.raw
	case KindTime:
		return v.t
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindBytes:
		return fmt.Sprintf("%x", v.raw)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	}
	return "NULL"
}

var binaryTypes = []string{"BYTEA", "BLOB", "BINARY", "VARBINARY", "RAW", "IMAGE"}

// FromDriver converts a scanned driver value. Drivers hand back many text
// types as []byte, so bytes are text unless the column type is binary.
func FromDriver(src interface{}, dbType string) Value {
	switch x := src.(type) {
	case nil:
		return Null()
	case string:
		return Text(x)
	case []byte:
		if isBinaryType(dbType) {
			return Bytes(x)
		}
		return Text(string(x))
	case int64:
		return Integer(x)
	case int32:
		return Integer(int64(x))
	case int:
		return Integer(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case bool:
		return Boolean(x)
	case time.Time:
		return Timestamp(x)
	}
	return Text(fmt.Sprint(src))
}

func isBinaryType(dbType string) bool {
	t := strings.ToUpper(dbType)
	for _, b := range binaryTypes {
		if strings.Contains(t, b) {
			return true
		}
	}
	return false
}

// Row is an ordered column-to-value mapping. Column names keep the store's
// spelling; lookups ignore case.
type Row struct {
	cols []string
	vals []Value
}

func NewRow(cols []string, vals []Value) Row {
	return Row{cols: append([]string(nil), cols...), vals: append([]Value(nil), vals...)}
}

func (r Row) Columns() []string { return r.cols }
func (r Row) Len() int { return len(r.cols) }

func (r Row) index(name string) int {
	for i, c := range r.cols {
		if c == name {
			return i
		}
	}
	for i, c := range r.cols {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of column name.
func (r Row) Get(name string) (Value, bool) {
	i := r.index(name)
	if i < 0 {
		return Value{}, false
	}
	return r.vals[i], true
}

// Set replaces the value of an existing column and reports whether it existed.
func (r Row) Set(name string, v Value) bool {
	i := r.index(name)
	if i < 0 {
		return false
	}
	r.vals[i] = v
	return true
}

// renamed returns r with its columns relabeled positionally by cols.
func (r Row) renamed(cols []string) Row {
	return Row{cols: cols, vals: r.vals}
}

// scanRows reads every remaining row of rs.
func scanRows(rs *sql.Rows) ([]Row, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	dbTypes := make([]string, len(cols))
	if types, err := rs.ColumnTypes(); err == nil {
		for i, ct := range types {
			dbTypes[i] = ct.DatabaseTypeName()
		}
	}

	var out []Row
	for rs.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		vals := make([]Value, len(cols))
		for i, v := range raw {
			vals[i] = FromDriver(v, dbTypes[i])
		}
		out = append(out, Row{cols: cols, vals: vals})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
