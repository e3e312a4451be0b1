package naming

// reserved holds words a token identifier may not take in generated code:
// the Go keywords plus the schema keywords of the layer syntax.
var reserved = map[string]struct{}{
	"break": {}, "case": {}, "chan": {}, "const": {}, "continue": {},
	"default": {}, "defer": {}, "else": {}, "fallthrough": {}, "for": {},
	"func": {}, "go": {}, "goto": {}, "if": {}, "import": {},
	"interface": {}, "map": {}, "package": {}, "range": {}, "return": {},
	"select": {}, "struct": {}, "switch": {}, "type": {}, "var": {},
	"class": {}, "def": {}, "template": {},
}

// IsReserved reports whether id is a reserved word.
func IsReserved(id string) bool {
	_, ok := reserved[id]
	return ok
}

// SanitizeIdentifier appends an underscore to reserved words.
func SanitizeIdentifier(id string) string {
	if IsReserved(id) {
		return id + "_"
	}
	return id
}

// IsIdentifier reports whether id is an ASCII letter or underscore followed
// by letters, digits and underscores.
func IsIdentifier(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}
