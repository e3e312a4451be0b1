// Package emit renders class models into Go source files through the template
// engine and writes them idempotently, keeping the hand-written region at the
// end of each file.
package emit

import (
	"context"
	"errors"
	"fmt"
	"go/format"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-schemagen/internal/logging"
	"github.com/goliatone/go-schemagen/pkg/model"
	rendertemplate "github.com/goliatone/go-schemagen/pkg/render/template"
	gotemplate "github.com/goliatone/go-schemagen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-schemagen/pkg/report"
)

// TemplateError is a fatal template problem: a missing template, a syntax
// error, or a render failure. It is raised before any file is written.
type TemplateError struct {
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("emit: template %s: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

type Option func(*config)

type config struct {
	templateFS  fs.FS
	overlayDirs []string
	renderer    rendertemplate.TemplateRenderer
	outputDir   string
	pkg         string
	validate    bool
	targets     []Target
}

// WithTemplatesFS replaces the built-in template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir adds a directory whose templates shadow the bundle.
func WithTemplatesDir(dir string) Option {
	return func(cfg *config) {
		if dir = strings.TrimSpace(dir); dir != "" {
			cfg.overlayDirs = append(cfg.overlayDirs, dir)
		}
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.renderer = renderer
		}
	}
}

// WithOutputDir sets the directory generated paths are relative to.
func WithOutputDir(dir string) Option {
	return func(cfg *config) {
		cfg.outputDir = dir
	}
}

// WithPackage overrides the Go package name derived from the library path.
func WithPackage(name string) Option {
	return func(cfg *config) {
		cfg.pkg = strings.TrimSpace(name)
	}
}

// WithValidate switches the emitter to compare-only mode.
func WithValidate(validate bool) Option {
	return func(cfg *config) {
		cfg.validate = validate
	}
}

// WithTargets replaces DefaultTargets.
func WithTargets(targets ...Target) Option {
	return func(cfg *config) {
		cfg.targets = targets
	}
}

// Emitter renders and writes generated files.
type Emitter struct {
	templates rendertemplate.TemplateRenderer
	writer    Writer
	outputDir string
	pkg       string
	targets   []Target
}

// Input is what one library emission needs.
type Input struct {
	Library model.Library
	Classes []*model.ClassModel
	Tokens  *model.TokenTable
}

// File is one rendered output, not yet written.
type File struct {
	// Path is the absolute or output-dir-joined path.
	Path    string
	Content string
}

// New constructs an emitter applying any provided options.
func New(options ...Option) (*Emitter, error) {
	cfg := config{templateFS: TemplatesFS(), outputDir: "."}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.targets == nil {
		cfg.targets = DefaultTargets()
	}

	renderer := cfg.renderer
	if renderer == nil {
		engineOpts := []gotemplate.Option{
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tpl"),
		}
		for _, dir := range cfg.overlayDirs {
			engineOpts = append(engineOpts, gotemplate.WithOverlayDir(dir))
		}
		engine, err := gotemplate.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("emit: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Emitter{
		templates: renderer,
		writer:    Writer{Validate: cfg.validate},
		outputDir: cfg.outputDir,
		pkg:       cfg.pkg,
		targets:   cfg.targets,
	}, nil
}

// Compile parses every template the targets reference. Renderers that cannot
// compile ahead of time are checked at render time instead.
func (e *Emitter) Compile() error {
	compiler, ok := e.templates.(rendertemplate.Compiler)
	if !ok {
		return nil
	}
	var errs []error
	for _, name := range templateNames(e.targets) {
		if err := compiler.Compile(name); err != nil {
			errs = append(errs, &TemplateError{Template: name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Emit compiles the templates, renders every target in memory and then writes
// each file. Template problems abort before the first write; per-file I/O
// problems land in rep.
func (e *Emitter) Emit(ctx context.Context, in Input, rep *report.Report) error {
	if err := e.Compile(); err != nil {
		return err
	}
	files, err := e.Render(ctx, in, rep)
	if err != nil {
		return err
	}
	return e.WriteFiles(ctx, files, rep)
}

// WriteFiles stores rendered files one at a time. A failed write is recorded
// on rep and does not stop the remaining files.
func (e *Emitter) WriteFiles(ctx context.Context, files []File, rep *report.Report) error {
	logger := logging.FromContext(ctx)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := e.writer.WriteVerbatim(file.Path, file.Content)
		rep.AddFile(result)
		if result.Err != nil {
			rep.Errorf(file.Path, "%v", result.Err)
		}
		logger.Debug("emit: file", "path", file.Path, "status", result.Status)
	}
	return nil
}

// Render produces the content of every target without touching the output
// directory beyond reading the custom regions of existing files.
func (e *Emitter) Render(ctx context.Context, in Input, rep *report.Report) ([]File, error) {
	lib := newLibraryView(in.Library, e.pkg)
	tokens, err := newTokenViews(in.Tokens)
	if err != nil {
		return nil, err
	}

	var files []File
	seen := map[string]string{}
	add := func(target Target, data map[string]any) error {
		file, err := e.renderTarget(target, data, rep)
		if err != nil {
			return err
		}
		if other, dup := seen[file.Path]; dup {
			return &TemplateError{
				Template: target.Template,
				Err:      fmt.Errorf("output %s is also produced by %s", file.Path, other),
			}
		}
		seen[file.Path] = target.Template
		files = append(files, file)
		return nil
	}

	for _, target := range e.targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data := map[string]any{"package": lib.Package, "library": lib, "tokens": tokens}

		switch target.Scope {
		case ScopeClass:
			for _, cls := range in.Classes {
				view, err := newClassView(cls, lib)
				if err != nil {
					return nil, err
				}
				data["cls"] = view
				if err := add(target, data); err != nil {
					return nil, err
				}
			}
		default:
			if !e.wanted(target, in, tokens) {
				continue
			}
			if err := add(target, data); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

// RenderManifestSeed renders the initial plugInfo.json of the library.
func (e *Emitter) RenderManifestSeed(lib model.Library) (string, error) {
	view := newLibraryView(lib, e.pkg)
	out, err := e.templates.RenderTemplate(ManifestTemplate, map[string]any{"package": view.Package, "library": view})
	if err != nil {
		return "", &TemplateError{Template: ManifestTemplate, Err: err}
	}
	return out, nil
}

// OutputDir returns the directory generated paths are joined to.
func (e *Emitter) OutputDir() string {
	return e.outputDir
}

func (e *Emitter) wanted(target Target, in Input, tokens []tokenView) bool {
	switch target.Condition {
	case WhenExportAPI:
		return in.Library.UseExportAPI
	case WhenTokens:
		return len(tokens) > 0
	default:
		return true
	}
}

func (e *Emitter) renderTarget(target Target, data map[string]any, rep *report.Report) (File, error) {
	rel, err := e.templates.RenderString(target.Path, data)
	if err != nil {
		return File{}, &TemplateError{Template: target.Template, Err: fmt.Errorf("output path: %w", err)}
	}
	rel = strings.TrimSpace(rel)
	if rel == "" || !filepath.IsLocal(rel) {
		return File{}, &TemplateError{
			Template: target.Template,
			Err:      fmt.Errorf("output path %q is not inside the output directory", rel),
		}
	}
	path := filepath.Join(e.outputDir, rel)

	content, err := e.templates.RenderTemplate(target.Template, data)
	if err != nil {
		return File{}, &TemplateError{Template: target.Template, Err: err}
	}

	if strings.HasSuffix(rel, ".go") {
		formatted, err := format.Source([]byte(content))
		if err != nil {
			rep.Warnf(path, "go/format failed, keeping unformatted output: %v", err)
		} else {
			content = string(formatted)
		}
	}
	content = strings.TrimRight(content, "\n") + "\n"

	if target.Custom {
		tail := ExtractCustomCode(ReadExisting(path), target.DefaultCustomCode)
		content = joinCustomCode(content, tail)
	}
	return File{Path: path, Content: content}, nil
}
