package openapi

import (
	"context"
	"strings"

	"github.com/goliatone/go-schemagen/internal/logging"
	"github.com/goliatone/go-schemagen/internal/openapi/exporter"
	"github.com/goliatone/go-schemagen/pkg/emit"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// FileName is the exported document inside the output directory.
const FileName = "schema.openapi.json"

// DefaultVersion is used when the library does not provide one.
const DefaultVersion = "1.0.0"

// Options configures an Exporter.
type Options struct {
	// Title defaults to the library name.
	Title    string
	Version  string
	Validate bool
}

// Exporter renders and writes OpenAPI documents.
type Exporter struct {
	opts   Options
	writer emit.Writer
}

// New returns an exporter.
func New(opts Options) *Exporter {
	if strings.TrimSpace(opts.Version) == "" {
		opts.Version = DefaultVersion
	}
	return &Exporter{opts: opts, writer: emit.Writer{Validate: opts.Validate}}
}

// Render returns the JSON document for the registry layer of libraryName.
func (e *Exporter) Render(ctx context.Context, layer *schema.Layer, libraryName string) ([]byte, error) {
	title := e.opts.Title
	if title == "" {
		title = libraryName
	}
	if title == "" {
		title = "schema"
	}
	doc, err := exporter.Build(ctx, layer, exporter.Options{Title: title, Version: e.opts.Version})
	if err != nil {
		return nil, err
	}
	return exporter.Marshal(doc)
}

// Write renders the document and stores it at path.
func (e *Exporter) Write(ctx context.Context, path string, layer *schema.Layer, libraryName string, rep *report.Report) error {
	data, err := e.Render(ctx, layer, libraryName)
	if err != nil {
		return err
	}
	result := e.writer.Write(path, string(data))
	rep.AddFile(result)
	if result.Err != nil {
		rep.Errorf(path, "%v", result.Err)
	}
	logging.FromContext(ctx).Debug("openapi: file", "path", path, "status", result.Status)
	return nil
}
