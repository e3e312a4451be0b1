package naming

import (
	"strings"
	"unicode"
)

// SanitizeDoc strips leading whitespace from every line of doc and joins the
// lines back with leader, so a multi-line description can be dropped into a
// comment block: SanitizeDoc(doc, "\n// ").
func SanitizeDoc(doc, leader string) string {
	if doc == "" {
		return ""
	}
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeftFunc(line, unicode.IsSpace)
	}
	return strings.Join(lines, leader)
}
