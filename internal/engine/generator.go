package engine

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"tablesync/internal/schema"
)

// Generator produces plausible fake values for a column from its declared
// type and the meaning of its name.
type Generator struct {
	f   *gofakeit.Faker
	now time.Time
}

// NewGenerator returns a Generator. A zero seed picks a random one.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{f: gofakeit.New(seed), now: time.Now()}
}

// Value generates one value for col.
func (g *Generator) Value(col schema.ColumnDescriptor) Value {
	dataType := strings.ToLower(col.DataType)
	name := strings.ToLower(col.Name)
	meaning := schema.Meaning(col.Name)

	switch {
	case isTextType(dataType):
		return Text(g.text(name, meaning))

	case dataType == "time" || strings.HasPrefix(dataType, "time "):
		return Text(g.f.DateRange(g.now.AddDate(-1, 0, 0), g.now).Format("15:04:05"))

	case strings.Contains(dataType, "date") || strings.Contains(dataType, "time"):
		return Timestamp(g.f.DateRange(g.now.AddDate(-1, 0, 0), g.now).UTC().Truncate(time.Second))

	case strings.Contains(dataType, "bool") || dataType == "bit":
		return Boolean(g.f.Bool())

	case strings.Contains(dataType, "int") || dataType == "number":
		return Integer(int64(g.integer(dataType, name, meaning)))

	case strings.Contains(dataType, "decimal") || strings.Contains(dataType, "numeric") ||
		strings.Contains(dataType, "float") || strings.Contains(dataType, "double") ||
		strings.Contains(dataType, "real") || strings.Contains(dataType, "money"):
		return Float(g.f.Price(0.99, 99.99))

	case dataType == "uuid" || dataType == "uniqueidentifier":
		return Text(g.f.UUID())

	case isBinaryType(dataType):
		return Bytes([]byte("dummy"))
	}

	if col.Nullable {
		return Null()
	}
	return Text(g.f.Word())
}

func isTextType(dataType string) bool {
	for _, t := range []string{"char", "text", "string", "clob"} {
		if strings.Contains(dataType, t) {
			return true
		}
	}
	return false
}

func has(meaning, name string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(meaning, w) || strings.Contains(name, w) {
			return true
		}
	}
	return false
}

func hasWord(meaning, word string) bool {
	for _, w := range strings.Fields(meaning) {
		if w == word {
			return true
		}
	}
	return false
}

func (g *Generator) text(name, meaning string) string {
	isID := name == "id" || strings.HasSuffix(name, "_id") || strings.HasSuffix(name, "id")

	switch {
	case isID:
		return g.f.UUID()
	case has(meaning, name, "year"):
		return g.f.DateRange(g.now.AddDate(-25, 0, 0), g.now).Format("2006")
	case has(meaning, name, "phone"):
		return g.f.Phone()
	case has(meaning, name, "email"):
		return g.f.Email()
	case has(meaning, name, "firstname", "first name"):
		return g.f.FirstName()
	case has(meaning, name, "lastname", "last name", "surname"):
		return g.f.LastName()
	case has(meaning, name, "user name", "username", "login"):
		return g.f.Username()
	case has(meaning, name, "company"):
		return g.f.Company()
	case has(meaning, name, "name"):
		return g.f.Name()
	case has(meaning, name, "address", "street"):
		return g.f.Street()
	case has(meaning, name, "city"):
		return g.f.City()
	case has(meaning, name, "country"):
		return g.f.Country()
	case has(meaning, name, "zipcode"):
		return g.f.Zip()
	case has(meaning, name, "password"):
		return g.f.Password(true, true, true, false, false, 12)
	case has(meaning, name, "ssn"):
		return g.f.SSN()
	case has(meaning, name, "url", "website"):
		return g.f.URL()
	case hasWord(meaning, "ip"):
		return g.f.IPv4Address()
	case has(meaning, name, "yesno", "active", "enabled"):
		if g.f.Bool() {
			return "Y"
		}
		return "N"
	case has(meaning, name, "title", "subject"):
		return strings.TrimSuffix(g.f.Sentence(3), ".")
	case has(meaning, name, "description", "message", "comment", "text", "note"):
		return g.f.Sentence(10)
	}
	return g.f.Word()
}

func (g *Generator) integer(dataType, name, meaning string) int {
	switch {
	case has(meaning, name, "yesno", "active", "enabled"):
		return g.f.Number(0, 1)
	case has(meaning, name, "year"):
		return g.f.Number(2000, 2025)
	case strings.Contains(dataType, "tinyint"):
		return g.f.Number(0, 127)
	case strings.Contains(dataType, "smallint"):
		return g.f.Number(1, 30000)
	}
	return g.f.Number(1, 50000)
}
