package codegen

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// commonInitialisms are written in upper case inside Go identifiers.
var commonInitialisms = map[string]bool{
	"ACL": true, "API": true, "ASCII": true, "CPU": true, "CSS": true,
	"DB": true, "DNS": true, "EOF": true, "GUID": true, "HTML": true,
	"HTTP": true, "HTTPS": true, "ID": true, "IP": true, "JSON": true,
	"RPC": true, "SKU": true, "SQL": true, "SSH": true, "TCP": true,
	"TLS": true, "TTL": true, "UDP": true, "UI": true, "UID": true,
	"URI": true, "URL": true, "UTF8": true, "UUID": true, "XML": true,
}

// reservedArgs are identifiers generated functions already use.
var reservedArgs = map[string]bool{
	"ctx": true, "db": true, "client": true, "types": true, "context": true,
}

// splitWords breaks snake_case, kebab-case and camelCase names into words.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func titleWord(w string) string {
	upper := strings.ToUpper(w)
	if commonInitialisms[upper] {
		return upper
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// toPascalCase converts a SQL name to an exported Go identifier.
func toPascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(titleWord(w))
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		name = "X" + name
	}
	return name
}

// toCamelCase converts a SQL name to an unexported Go identifier that is
// safe to use as a function argument.
func toCamelCase(s string) string {
	name := lowerCamel(splitWords(s))
	if name == "" {
		return "arg"
	}
	if !unicode.IsLetter([]rune(name)[0]) {
		name = "arg" + name
	}
	if token.IsKeyword(name) || reservedArgs[name] {
		name += "_"
	}
	return name
}

// lowerCamel joins words with only the first one lowered, so "GetUserByID"
// becomes "getUserByID".
func lowerCamel(words []string) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(titleWord(w))
	}
	return b.String()
}

// scope hands out unique Go identifiers.
type scope map[string]bool

func newScope(taken ...string) scope {
	s := make(scope)
	for _, name := range taken {
		s[name] = true
	}
	return s
}

// add returns name, or name with the first free numeric suffix.
func (s scope) add(name string) string {
	if !s[name] {
		s[name] = true
		return name
	}
	for n := 2; ; n++ {
		candidate := name + strconv.Itoa(n)
		if !s[candidate] {
			s[candidate] = true
			return candidate
		}
	}
}
