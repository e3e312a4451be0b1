package schemagen

import (
	"io/fs"

	"github.com/goliatone/go-schemagen/pkg/emit"
)

// EmbeddedTemplates exposes the built-in code templates so callers can copy
// and override them through a templates directory.
func EmbeddedTemplates() fs.FS {
	return emit.TemplatesFS()
}
