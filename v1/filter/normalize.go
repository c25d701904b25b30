package filter

import (
	"strings"
	"unicode"
)

// wordOperators maps the keyword spellings accepted in expressions to CEL operators.
var wordOperators = map[string]string{
	"and": "&&",
	"AND": "&&",
	"or":  "||",
	"OR":  "||",
	"not": "!",
	"NOT": "!",
}

// normalize rewrites keyword operators outside string literals, so that
// `price <= 3 and brand == "or"` becomes `price <= 3 && brand == "or"`.
func normalize(expr string) string {
	var (
		out   strings.Builder
		word  strings.Builder
		quote rune
		esc   bool
	)
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		if op, ok := wordOperators[w]; ok {
			out.WriteString(op)
		} else {
			out.WriteString(w)
		}
		word.Reset()
	}

	for _, r := range expr {
		if quote != 0 {
			out.WriteRune(r)
			switch {
			case esc:
				esc = false
			case r == '\\':
				esc = true
			case r == quote:
				quote = 0
			}
			continue
		}
		if r == '"' || r == '\'' {
			flush()
			quote = r
			out.WriteRune(r)
			continue
		}
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || (r == '.' && word.Len() > 0) {
			word.WriteRune(r)
			continue
		}
		flush()
		out.WriteRune(r)
	}
	flush()
	return out.String()
}
