// Package registry produces the flattened schema a runtime loads in place of
// the authored layers: every class with its inherited properties baked in,
// without library metadata or custom data.
package registry

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-schemagen/internal/logging"
	"github.com/goliatone/go-schemagen/pkg/emit"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
	"github.com/goliatone/go-schemagen/pkg/yamlschema"
)

// FileName is the registry file inside the output directory.
const FileName = "generatedSchema.yaml"

// GeneratedComment marks the registry as generated output.
const GeneratedComment = "WARNING: THIS FILE IS GENERATED BY schemagen.  DO NOT EDIT."

// FlattenError is a fatal registry failure.
type FlattenError struct {
	Step string
	Err  error
}

func (e *FlattenError) Error() string {
	return fmt.Sprintf("registry: %s: %v", e.Step, e.Err)
}

func (e *FlattenError) Unwrap() error {
	return e.Err
}

var (
	refMarkup     = regexp.MustCompile(`\\+ref [^\s]+ `)
	sectionMarkup = regexp.MustCompile(`\\+section [^\s]+ `)
	markup        = strings.NewReplacer(`\em `, "", `\li`, "-")

	htmlPolicyOnce sync.Once
	htmlPolicy     *bluemonday.Policy
)

// Options configures a Flattener.
type Options struct {
	// StripHTML removes HTML tags from class and property documentation.
	StripHTML bool
	Validate  bool
}

// Flattener builds and writes registries.
type Flattener struct {
	opts   Options
	writer emit.Writer
}

// New returns a flattener.
func New(opts Options) *Flattener {
	return &Flattener{opts: opts, writer: emit.Writer{Validate: opts.Validate}}
}

// Flatten bakes stage into a registry layer holding only the classes named in
// keep.
func (f *Flattener) Flatten(ctx context.Context, stage schema.Stage, keep []string, rep *report.Report) (*schema.Layer, error) {
	restore, err := mangleSession(stage)
	if err != nil {
		return nil, &FlattenError{Step: "mangle", Err: err}
	}
	flat, err := stage.Flatten()
	restore()
	if err != nil {
		return nil, &FlattenError{Step: "flatten", Err: err}
	}
	demangleLayer(flat)
	reassignDocs(flat, stage.LayerStack())

	if !flat.RemoveClass(schema.GlobalClassName) {
		rep.Warnf(schema.GlobalClassName, "could not remove GLOBAL from the registry")
	}
	for _, name := range flat.Classes.Keys() {
		if !slices.Contains(keep, name) {
			flat.RemoveClass(name)
			continue
		}
		cls, _ := flat.Classes.Get(name)
		f.scrubClass(cls)
	}

	flat.Comment = GeneratedComment
	flat.SubLayers = nil
	flat.Documentation = scrubDoc(flat.Documentation, false)
	logging.FromContext(ctx).Debug("registry: flattened", "classes", flat.Classes.Len())
	return flat, nil
}

// Write encodes layer and stores it at path.
func (f *Flattener) Write(ctx context.Context, path string, layer *schema.Layer, rep *report.Report) error {
	data, err := yamlschema.New().Encode(layer)
	if err != nil {
		return &FlattenError{Step: "encode", Err: err}
	}
	result := f.writer.Write(path, string(data))
	rep.AddFile(result)
	if result.Err != nil {
		rep.Errorf(path, "%v", result.Err)
	}
	logging.FromContext(ctx).Debug("registry: file", "path", path, "status", result.Status)
	return nil
}

// reassignDocs replaces composed documentation, which a class may have picked
// up from what it inherits, with the documentation authored on the class
// itself in the strongest layer that has any.
func reassignDocs(flat *schema.Layer, stack []*schema.Layer) {
	for name, cls := range flat.Classes.All() {
		cls.ClearDocumentation()
		for _, layer := range stack {
			if spec, ok := layer.Class(name); ok && spec.HasDocumentation {
				cls.SetDocumentation(spec.Documentation)
				break
			}
		}
	}
}

func (f *Flattener) scrubClass(cls *schema.ClassSpec) {
	cls.CustomData = nil
	if cls.HasDocumentation {
		cls.Documentation = scrubDoc(cls.Documentation, f.opts.StripHTML)
	}
	for _, prop := range cls.Properties.All() {
		prop.CustomData = nil
		if prop.HasDocumentation {
			prop.Documentation = scrubDoc(prop.Documentation, f.opts.StripHTML)
		}
	}
}

// scrubDoc removes documentation markup the runtime does not render.
func scrubDoc(doc string, stripHTML bool) string {
	doc = markup.Replace(doc)
	doc = refMarkup.ReplaceAllString(doc, "")
	doc = sectionMarkup.ReplaceAllString(doc, "")
	if stripHTML && strings.ContainsRune(doc, '<') {
		doc = html.UnescapeString(sanitizer().Sanitize(doc))
	}
	return doc
}

func sanitizer() *bluemonday.Policy {
	htmlPolicyOnce.Do(func() {
		htmlPolicy = bluemonday.StrictPolicy()
	})
	return htmlPolicy
}
