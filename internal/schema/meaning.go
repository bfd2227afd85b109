package schema

import "strings"

var abbreviations = map[string]string{
	"nm": "name", "dt": "date", "no": "number", "cd": "code",
	"desc": "description", "amt": "amount", "cnt": "count", "qty": "quantity",
	"addr": "address", "tel": "phone", "ph": "phone", "mobile": "phone",
	"pwd": "password", "passwd": "password", "pw": "password",
	"zip": "zipcode", "postal": "zipcode", "mail": "email",
	"msg": "message", "txt": "text", "subj": "subject",
	"usr": "user", "emp": "employee", "dept": "department",
	"ssn": "ssn", "card": "card", "iban": "iban", "acct": "account",
	"reg": "registered", "mod": "modified", "cre": "created", "upd": "updated",
	"yn": "yesno", "flg": "yesno", "is": "yesno",
	"fname": "firstname", "lname": "lastname",
}

// Meaning guesses what a column holds from its name, e.g. "cust_tel_no"
// becomes "cust phone number". The result drives fake value generation.
func Meaning(column string) string {
	parts := strings.FieldsFunc(strings.ToLower(column), func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	for i, p := range parts {
		if full, ok := abbreviations[p]; ok {
			parts[i] = full
		}
	}
	return strings.Join(parts, " ")
}
