package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/goliatone/go-schemagen/internal/logging"
	"github.com/goliatone/go-schemagen/pkg/compose"
	"github.com/goliatone/go-schemagen/pkg/emit"
	"github.com/goliatone/go-schemagen/pkg/manifest"
	"github.com/goliatone/go-schemagen/pkg/model"
	"github.com/goliatone/go-schemagen/pkg/openapi"
	"github.com/goliatone/go-schemagen/pkg/registry"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithModelBuilder injects a custom class model builder.
func WithModelBuilder(builder model.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = builder
	}
}

// WithSchemaTransformer registers a Transformer that can mutate class models
// after token collection but before decorators run.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers decorators that run against every class model
// before rendering.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithFS resolves fs sources, including sublayers and builtins, against files.
func WithFS(files fs.FS) Option {
	return func(o *Orchestrator) {
		o.files = files
	}
}

// WithSearchPaths adds directories consulted when a sublayer is not found next
// to the layer that references it.
func WithSearchPaths(paths ...string) Option {
	return func(o *Orchestrator) {
		o.searchPaths = append(o.searchPaths, paths...)
	}
}

// WithBuiltins names registries whose type definitions are already
// registered.
func WithBuiltins(sources ...schema.Source) Option {
	return func(o *Orchestrator) {
		o.builtinSources = append(o.builtinSources, sources...)
	}
}

// WithBuiltinLayers seeds already decoded builtin registries.
func WithBuiltinLayers(layers ...*schema.Layer) Option {
	return func(o *Orchestrator) {
		o.builtinLayers = append(o.builtinLayers, layers...)
	}
}

// WithEmitterOptions forwards options to the code emitter. Output directory
// and validate mode are set per run and override anything passed here.
func WithEmitterOptions(options ...emit.Option) Option {
	return func(o *Orchestrator) {
		o.emitOptions = append(o.emitOptions, options...)
	}
}

// WithTemplatesDir overlays templates found in dir on top of the embedded
// ones.
func WithTemplatesDir(dir string) Option {
	return func(o *Orchestrator) {
		if dir != "" {
			o.emitOptions = append(o.emitOptions, emit.WithTemplatesDir(dir))
		}
	}
}

// WithPackage overrides the Go package name of generated files.
func WithPackage(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.emitOptions = append(o.emitOptions, emit.WithPackage(name))
		}
	}
}

// WithValidate switches every writer to validate mode: nothing is written and
// differing files are reported as stale.
func WithValidate(validate bool) Option {
	return func(o *Orchestrator) {
		o.validate = validate
	}
}

// WithStripHTML removes HTML tags from registry documentation.
func WithStripHTML(strip bool) Option {
	return func(o *Orchestrator) {
		o.stripHTML = strip
	}
}

// WithOpenAPI enables the OpenAPI export of the registry.
func WithOpenAPI(opts openapi.Options) Option {
	return func(o *Orchestrator) {
		o.openAPI = &opts
	}
}

// Orchestrator runs the whole generation pipeline for one schema layer:
// compose, build, collect tokens, emit, merge the manifest, flatten the
// registry and optionally export OpenAPI.
type Orchestrator struct {
	builder        model.Builder
	transformer    Transformer
	decorators     []model.Decorator
	files          fs.FS
	searchPaths    []string
	builtinSources []schema.Source
	builtinLayers  []*schema.Layer
	emitOptions    []emit.Option
	validate       bool
	stripHTML      bool
	openAPI        *openapi.Options
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one generation run.
type Request struct {
	// Source is the root schema layer.
	Source schema.Source
	// OutputDir receives generated code, the manifest and the registry.
	// Defaults to the current directory.
	OutputDir string
}

// Generate executes the pipeline. Every fatal problem (unresolvable layers,
// naming-contract violations, token conflicts, template errors, a failed
// flatten) is returned before the first file is written. Per-file problems are
// recorded on the returned report.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*report.Report, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Source == nil {
		return nil, errors.New("orchestrator: source is required")
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	logger := logging.FromContext(ctx)
	rep := report.New()

	stage, err := o.openStage(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	result, err := o.builder.Build(ctx, stage, rep)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build class models: %w", err)
	}
	lib := result.Library
	logger.Info("orchestrator: built class models", "library", lib.Name, "classes", len(result.Classes))

	emitter, err := emit.New(slices.Concat(o.emitOptions, []emit.Option{
		emit.WithOutputDir(outputDir),
		emit.WithValidate(o.validate),
	})...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	var (
		files []emit.File
		seed  string
	)
	if lib.SkipCodeGeneration {
		logger.Info("orchestrator: code generation skipped", "library", lib.Name)
	} else {
		tokens, err := model.CollectTokens(result.Classes, lib)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: collect tokens: %w", err)
		}
		if err := o.applyTransformer(ctx, result); err != nil {
			return nil, err
		}
		if err := o.applyDecorators(result.Classes); err != nil {
			return nil, err
		}
		if err := emitter.Compile(); err != nil {
			return nil, fmt.Errorf("orchestrator: compile templates: %w", err)
		}
		files, err = emitter.Render(ctx, emit.Input{Library: lib, Classes: result.Classes, Tokens: tokens}, rep)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: render: %w", err)
		}
		if seed, err = emitter.RenderManifestSeed(lib); err != nil {
			return nil, fmt.Errorf("orchestrator: render manifest seed: %w", err)
		}
	}

	flattener := registry.New(registry.Options{StripHTML: o.stripHTML, Validate: o.validate})
	flat, err := flattener.Flatten(ctx, stage, result.ClassNames(), rep)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	var exporter *openapi.Exporter
	if o.openAPI != nil {
		opts := *o.openAPI
		opts.Validate = o.validate
		exporter = openapi.New(opts)
		if _, err := exporter.Render(ctx, flat, lib.Name); err != nil {
			return nil, fmt.Errorf("orchestrator: export openapi: %w", err)
		}
	}

	// Nothing above touches the output directory.
	if !lib.SkipCodeGeneration {
		if err := emitter.WriteFiles(ctx, files, rep); err != nil {
			return rep, err
		}
		merger := manifest.New(o.validate)
		seedFn := func() (string, error) { return seed, nil }
		if err := merger.Merge(ctx, filepath.Join(outputDir, manifest.FileName), lib, result.Classes, seedFn, rep); err != nil {
			return rep, fmt.Errorf("orchestrator: merge manifest: %w", err)
		}
	}
	if err := flattener.Write(ctx, filepath.Join(outputDir, registry.FileName), flat, rep); err != nil {
		return rep, fmt.Errorf("orchestrator: %w", err)
	}
	if exporter != nil {
		if err := exporter.Write(ctx, filepath.Join(outputDir, openapi.FileName), flat, lib.Name, rep); err != nil {
			return rep, fmt.Errorf("orchestrator: export openapi: %w", err)
		}
	}

	logger.Info("orchestrator: done",
		"wrote", rep.Count(report.StatusWrote),
		"unchanged", rep.Count(report.StatusUnchanged),
		"stale", rep.Count(report.StatusStale),
		"failed", rep.Count(report.StatusFailed),
	)
	return rep, nil
}

func (o *Orchestrator) openStage(ctx context.Context, src schema.Source) (*compose.Stage, error) {
	options := []compose.Option{compose.WithSearchPaths(o.searchPaths...)}
	if o.files != nil {
		options = append(options, compose.WithFS(o.files))
	}

	builtins := append([]*schema.Layer(nil), o.builtinLayers...)
	for _, source := range o.builtinSources {
		layer, err := compose.LoadLayer(ctx, source, options...)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load builtins: %w", err)
		}
		builtins = append(builtins, layer)
	}
	if len(builtins) > 0 {
		options = append(options, compose.WithBuiltins(builtins...))
	}

	stage, err := compose.Open(ctx, src, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: open schema: %w", err)
	}
	return stage, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, result *model.Result) error {
	if o.transformer == nil || result == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, result); err != nil {
		return fmt.Errorf("orchestrator: transform classes: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDecorators(classes []*model.ClassModel) error {
	if len(o.decorators) == 0 {
		return nil
	}
	for _, cls := range classes {
		for _, decorator := range o.decorators {
			if decorator == nil {
				continue
			}
			if err := decorator.Decorate(cls); err != nil {
				return fmt.Errorf("orchestrator: decorate %s: %w", cls.SchemaTypeName, err)
			}
		}
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.builder == nil {
		o.builder = model.NewBuilder()
	}
}
