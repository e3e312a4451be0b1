package schema

import (
	"fmt"
	"slices"
)

// Format decodes one on-disk layer syntax.
type Format interface {
	Name() string
	// Extensions lists the lower-case file extensions handled, dot included.
	Extensions() []string
	Decode(doc Document) (*Layer, error)
}

// Encoder serializes a layer back into its on-disk syntax.
type Encoder interface {
	Encode(layer *Layer) ([]byte, error)
}

// FormatFor picks the format registered for the document's extension.
func FormatFor(doc Document, formats ...Format) (Format, error) {
	ext := doc.Ext()
	for _, f := range formats {
		if f != nil && slices.Contains(f.Extensions(), ext) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("schema: no layer format registered for %q", doc.Location())
}

// DecodeError describes a problem found while decoding a layer.
type DecodeError struct {
	Location string
	Line     int
	Message  string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("schema: %s:%d: %s", e.Location, e.Line, e.Message)
	}
	return fmt.Sprintf("schema: %s: %s", e.Location, e.Message)
}
