// Package compose opens a stack of schema layers and answers composed queries
// over it: which classes exist, what they inherit, and the strongest opinion
// for every property they carry.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/goliatone/go-schemagen/internal/loader"
	"github.com/goliatone/go-schemagen/pkg/hclschema"
	"github.com/goliatone/go-schemagen/pkg/schema"
	"github.com/goliatone/go-schemagen/pkg/yamlschema"
)

const (
	defaultMaxLayers       = 128
	defaultMaxLayerDepth   = 32
	defaultMaxInheritDepth = 64
)

// ErrClassNotFound is returned when no layer holds an opinion for a class.
var ErrClassNotFound = errors.New("compose: class not found")

// Option configures how a Stage is opened.
type Option func(*config)

type config struct {
	files       fs.FS
	searchPaths []string
	formats     []schema.Format
	builtins    []*schema.Layer
	maxLayers   int
	maxDepth    int
}

// WithFS resolves fs sources against files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithSearchPaths adds directories consulted when a sublayer is not found
// next to the layer referencing it.
func WithSearchPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			if p != "" {
				cfg.searchPaths = append(cfg.searchPaths, p)
			}
		}
	}
}

// WithFormats replaces the layer formats. YAML/JSON and HCL are registered by
// default.
func WithFormats(formats ...schema.Format) Option {
	return func(cfg *config) {
		if len(formats) > 0 {
			cfg.formats = formats
		}
	}
}

// WithBuiltins seeds the stage with type definitions that are already
// registered, such as previously generated registries. Properties of a class
// whose composed type name matches a builtin take their value type and
// variability from the builtin definition.
func WithBuiltins(layers ...*schema.Layer) Option {
	return func(cfg *config) {
		cfg.builtins = append(cfg.builtins, layers...)
	}
}

// WithMaxLayers caps the number of layers in a stack.
func WithMaxLayers(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxLayers = n
		}
	}
}

// WithMaxDepth caps sublayer nesting.
func WithMaxDepth(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxDepth = n
		}
	}
}

func newConfig(options []Option) *config {
	cfg := &config{
		formats:   []schema.Format{yamlschema.New(), hclschema.New()},
		maxLayers: defaultMaxLayers,
		maxDepth:  defaultMaxLayerDepth,
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// Stage is the composed view of a layer stack.
type Stage struct {
	stack    []*schema.Layer
	session  *schema.Layer
	builtins map[string]*schema.ClassSpec
}

var _ schema.Stage = (*Stage)(nil)

// Open loads the layer at src together with its sublayers.
func Open(ctx context.Context, src schema.Source, options ...Option) (*Stage, error) {
	if src == nil {
		return nil, errors.New("compose: source is nil")
	}
	cfg := newConfig(options)

	session := &openSession{
		loader: loader.New(loader.Options{
			FileSystem:  cfg.files,
			SearchPaths: cfg.searchPaths,
			Formats:     cfg.formats,
		}),
		cfg:  cfg,
		seen: make(map[string]struct{}),
	}
	if err := session.load(ctx, src, 0); err != nil {
		return nil, err
	}
	return newStage(session.stack, cfg.builtins), nil
}

// LoadLayer decodes the single document at src without following its
// sublayers. Builtin registries are read this way.
func LoadLayer(ctx context.Context, src schema.Source, options ...Option) (*schema.Layer, error) {
	if src == nil {
		return nil, errors.New("compose: source is nil")
	}
	cfg := newConfig(options)
	l := loader.New(loader.Options{FileSystem: cfg.files, Formats: cfg.formats})
	layer, err := l.Decode(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("compose: load %s: %w", src.Location(), err)
	}
	return layer, nil
}

// NewStage composes layers that are already decoded. layers[0] is the root and
// the rest are its sublayers, strongest first; SubLayers fields are not
// followed.
func NewStage(layers []*schema.Layer, options ...Option) (*Stage, error) {
	if len(layers) == 0 || layers[0] == nil {
		return nil, errors.New("compose: a root layer is required")
	}
	cfg := newConfig(options)
	return newStage(layers, cfg.builtins), nil
}

func newStage(stack []*schema.Layer, builtins []*schema.Layer) *Stage {
	s := &Stage{
		stack:    stack,
		session:  schema.NewLayer("session"),
		builtins: make(map[string]*schema.ClassSpec),
	}
	for _, layer := range builtins {
		if layer == nil {
			continue
		}
		for name, cls := range layer.Classes.All() {
			if name == schema.GlobalClassName || cls.TypeName == "" {
				continue
			}
			if _, ok := s.builtins[cls.TypeName]; !ok {
				s.builtins[cls.TypeName] = cls.Clone()
			}
		}
	}
	return s
}

func (s *Stage) RootLayer() *schema.Layer {
	return s.stack[0]
}

func (s *Stage) LayerStack() []*schema.Layer {
	return append([]*schema.Layer(nil), s.stack...)
}

func (s *Stage) SessionLayer() *schema.Layer {
	return s.session
}

// DefiningSpec returns the first layer of the stack holding a root spec
// called name. The session layer is not consulted.
func (s *Stage) DefiningSpec(name string) (*schema.Layer, *schema.ClassSpec, bool) {
	for _, layer := range s.stack {
		if cls, ok := layer.Class(name); ok {
			return layer, cls, true
		}
	}
	return nil, nil, false
}

// IsBuiltin reports whether typeName is a registered builtin type.
func (s *Stage) IsBuiltin(typeName string) bool {
	_, ok := s.builtins[typeName]
	return ok
}

// layers lists every layer that may hold opinions, strongest first.
func (s *Stage) layers() []*schema.Layer {
	out := make([]*schema.Layer, 0, len(s.stack)+1)
	out = append(out, s.session)
	return append(out, s.stack...)
}

type openSession struct {
	loader *loader.Loader
	cfg    *config
	stack  []*schema.Layer
	seen   map[string]struct{}
	state  loadState
}

func (o *openSession) load(ctx context.Context, src schema.Source, depth int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	key, err := canonicalKey(src)
	if err != nil {
		return err
	}
	if o.state.contains(key) {
		return fmt.Errorf("compose: sublayer cycle detected at %s", src.Location())
	}
	if _, ok := o.seen[key]; ok {
		return nil
	}
	if depth > o.cfg.maxDepth {
		return fmt.Errorf("compose: sublayer depth exceeds %d at %s", o.cfg.maxDepth, src.Location())
	}
	if len(o.stack) >= o.cfg.maxLayers {
		return fmt.Errorf("compose: layer stack exceeds %d layers", o.cfg.maxLayers)
	}

	layer, err := o.loader.Decode(ctx, src)
	if err != nil {
		return fmt.Errorf("compose: open %s: %w", src.Location(), err)
	}
	layer.Identifier = src.Location()
	o.seen[key] = struct{}{}
	o.stack = append(o.stack, layer)

	o.state.push(key)
	defer o.state.pop(key)
	for _, ref := range layer.SubLayers {
		sub, err := o.loader.Resolve(src, ref)
		if err != nil {
			return fmt.Errorf("compose: %w", err)
		}
		if err := o.load(ctx, sub, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func canonicalKey(src schema.Source) (string, error) {
	switch src.Kind() {
	case schema.SourceKindFile:
		abs, err := filepath.Abs(src.Location())
		if err != nil {
			return "", err
		}
		return "file:" + abs, nil
	case schema.SourceKindFS:
		return "fs:" + src.Location(), nil
	default:
		return "", fmt.Errorf("compose: unsupported source kind %q", src.Kind())
	}
}

type loadState struct {
	stack   []string
	inStack map[string]struct{}
}

func (s *loadState) push(key string) {
	s.stack = append(s.stack, key)
	if s.inStack == nil {
		s.inStack = make(map[string]struct{})
	}
	s.inStack[key] = struct{}{}
}

func (s *loadState) pop(key string) {
	if len(s.stack) == 0 {
		return
	}
	last := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.inStack, last)
	if key != last {
		delete(s.inStack, key)
	}
}

func (s *loadState) contains(key string) bool {
	_, ok := s.inStack[key]
	return ok
}
