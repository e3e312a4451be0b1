package emit

// Scope says whether a target renders once per library or once per class.
type Scope string

const (
	ScopeLibrary Scope = "library"
	ScopeClass   Scope = "class"
)

// Condition gates library targets on what the run produced.
type Condition string

const (
	Always Condition = ""
	// WhenExportAPI renders only when the library uses the export API.
	WhenExportAPI Condition = "exportAPI"
	// WhenTokens renders only when the token table is not empty.
	WhenTokens Condition = "tokens"
)

// Target is one output file kind.
type Target struct {
	// Template is the template name without extension.
	Template string
	// Path is a template string rendered with the same data as Template to
	// produce the output path relative to the output directory.
	Path  string
	Scope Scope
	// Custom targets keep the hand-written tail after CustomCodeMarker.
	Custom bool
	// DefaultCustomCode is appended when the file has no custom tail yet.
	DefaultCustomCode string
	Condition         Condition
}

const defaultClassCustomCode = `
// Hand-written methods of this class go here. Everything below the marker
// survives regeneration.
`

// DefaultTargets returns the generated Go files of a library.
func DefaultTargets() []Target {
	return []Target{
		{Template: "api.go", Path: "api.go", Scope: ScopeLibrary, Condition: WhenExportAPI},
		{Template: "tokens.go", Path: "tokens.go", Scope: ScopeLibrary, Condition: WhenTokens},
		{
			Template:          "schemaClass.go",
			Path:              "{{ cls.baseFileName }}.go",
			Scope:             ScopeClass,
			Custom:            true,
			DefaultCustomCode: defaultClassCustomCode,
		},
		{
			Template: "registerSchemaClass.go",
			Path:     "register{{ cls.className }}.go",
			Scope:    ScopeClass,
			Custom:   true,
		},
	}
}

// ManifestTemplate seeds plugInfo.json when the output directory has none.
const ManifestTemplate = "plugInfo.json"

func templateNames(targets []Target) []string {
	names := make([]string, 0, len(targets)+1)
	for _, t := range targets {
		names = append(names, t.Template)
	}
	return append(names, ManifestTemplate)
}
