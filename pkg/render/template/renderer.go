package template

// TemplateRenderer is the seam the code emitter renders through. Templates are
// addressed by name; inline content is used for output path patterns such as
// "{{ cls.baseFileName }}.go".
type TemplateRenderer interface {
	RenderTemplate(name string, data any) (string, error)
	RenderString(content string, data any) (string, error)
}

// Compiler is implemented by renderers that can load and parse templates
// ahead of rendering.
type Compiler interface {
	Compile(names ...string) error
}
