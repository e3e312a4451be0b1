// Package naming holds the string transforms shared by the class model, the
// token table and the code templates.
package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonWord = regexp.MustCompile(`\W+`)

// ProperCase converts camelCase or ProperCase input to ProperCase, dropping
// every non-alphanumeric character: "faceVertex:indices" -> "FaceVertexIndices".
func ProperCase(s string) string {
	if utf8.RuneCountInString(s) <= 1 {
		return Upper(s)
	}
	var b strings.Builder
	for _, part := range nonWord.Split(s, -1) {
		if part == "" {
			continue
		}
		b.WriteString(upperFirst(part))
	}
	return b.String()
}

// CamelCase converts input to camelCase using the same rules as ProperCase.
func CamelCase(s string) string {
	if utf8.RuneCountInString(s) <= 1 {
		return Lower(s)
	}
	return lowerFirst(ProperCase(s))
}

// Upper returns s in upper case.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Lower returns s in lower case.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
