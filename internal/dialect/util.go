package dialect

import (
	"strings"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed, the index of the first one, and a
// function that returns the placeholder for a given index.
func GeneratePlaceholders(count, offset int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(offset + i)
	}
	return strings.Join(placeholders, ", ")
}

// quoteWith wraps name in open/close, doubling any embedded close character.
func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

func quoteAll(cols []string, quote func(string) string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quote(c)
	}
	return out
}

func qualify(schema, table string, quote func(string) string) string {
	if schema == "" {
		return quote(table)
	}
	return quote(schema) + "." + quote(table)
}

// nonKeyColumns returns cols minus keys, compared case-insensitively.
func nonKeyColumns(cols, keys []string) []string {
	var out []string
	for _, c := range cols {
		isKey := false
		for _, k := range keys {
			if strings.EqualFold(c, k) {
				isKey = true
				break
			}
		}
		if !isKey {
			out = append(out, c)
		}
	}
	return out
}

// valuesRows renders "(p1, p2), (p3, p4)" for rows x cols placeholders.
func valuesRows(rows, cols int, placeholderFunc func(int) string) string {
	groups := make([]string, rows)
	for r := 0; r < rows; r++ {
		groups[r] = "(" + GeneratePlaceholders(cols, r*cols, placeholderFunc) + ")"
	}
	return strings.Join(groups, ", ")
}

// stringLiteral quotes s as a SQL string literal.
func stringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
