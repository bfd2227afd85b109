package schema

import "strings"

// ColumnDescriptor is one column as reported by the catalog.
type ColumnDescriptor struct {
	Name     string
	DataType string
	Nullable bool
	Ordinal  int // 1-based position in the catalog
}

// TableSchema is the ordered column list of one table. It is fetched fresh
// for every comparison and never modified.
type TableSchema struct {
	Schema  string
	Table   string
	Columns []ColumnDescriptor
}

// Column looks a column up by name, ignoring case.
func (t TableSchema) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// Names returns the column names in ordinal order.
func (t TableSchema) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
