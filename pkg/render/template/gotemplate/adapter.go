package gotemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-schemagen/internal/naming"
	"github.com/goliatone/go-schemagen/pkg/render/template"
)

// DefaultExtension is appended to template names that carry no extension.
const DefaultExtension = ".tpl"

// Option configures the pongo2 adapter before construction.
type Option func(*config)

type config struct {
	overlayDirs []string
	templates   fs.FS
	extension   string
}

// WithOverlayDir adds a directory searched before the filesystem. Directories
// are searched in the order they were added. Empty values are ignored.
func WithOverlayDir(dir string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			cfg.overlayDirs = append(cfg.overlayDirs, trimmed)
		}
	}
}

// WithFS sets the filesystem holding the default templates.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides DefaultExtension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// Engine renders code templates with pongo2. A template found in an overlay
// directory shadows the one of the same name in the filesystem.
type Engine struct {
	set *pongo2.TemplateSet
	ext string

	mu    sync.Mutex
	cache map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)
var _ template.Compiler = (*Engine)(nil)

// New constructs an Engine. At least one overlay directory or a filesystem
// is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: DefaultExtension}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.templates == nil && len(cfg.overlayDirs) == 0 {
		return nil, errors.New("gotemplate: a template directory or fs.FS is required")
	}

	loaders := make([]pongo2.TemplateLoader, 0, len(cfg.overlayDirs)+1)
	for _, dir := range cfg.overlayDirs {
		loader, err := pongo2.NewLocalFileSystemLoader(dir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: template dir %s: %w", dir, err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	registerFilters()
	return &Engine{
		set:   pongo2.NewSet("schemagen", loaders...),
		ext:   cfg.extension,
		cache: make(map[string]*pongo2.Template),
	}, nil
}

// Compile loads and parses every named template so missing files and syntax
// errors surface before anything is rendered. All failures are returned.
func (e *Engine) Compile(names ...string) error {
	var errs []error
	for _, name := range names {
		if _, err := e.lookup(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RenderTemplate executes the named template.
func (e *Engine) RenderTemplate(name string, data any) (string, error) {
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return execute(tmpl, data, e.filename(name))
}

// RenderString parses and executes content. Inline templates are not cached.
func (e *Engine) RenderString(content string, data any) (string, error) {
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse %q: %w", content, err)
	}
	return execute(tmpl, data, strconv.Quote(content))
}

func (e *Engine) filename(name string) string {
	if strings.HasSuffix(name, e.ext) {
		return name
	}
	return name + e.ext
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	path := e.filename(name)

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load template %q: %w", path, err)
	}
	e.cache[path] = tmpl
	return tmpl, nil
}

func execute(tmpl *pongo2.Template, data any, label string) (string, error) {
	ctx, err := contextOf(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", label, err)
	}
	out, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", label, err)
	}
	return out, nil
}

// contextOf turns view data into a pongo2 context. Structs are converted
// through their JSON form so templates address fields by JSON name.
func contextOf(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	top, ok := data.(map[string]any)
	if !ok {
		converted, err := viaJSON(data)
		if err != nil {
			return nil, err
		}
		if top, ok = converted.(map[string]any); !ok {
			return nil, fmt.Errorf("template data must be an object, got %T", data)
		}
	}

	ctx := make(pongo2.Context, len(top))
	for key, value := range top {
		switch value.(type) {
		case nil, string, bool, int, int64, float64:
			ctx[key] = value
		default:
			converted, err := viaJSON(value)
			if err != nil {
				return nil, fmt.Errorf("convert %q: %w", key, err)
			}
			ctx[key] = converted
		}
	}
	return ctx, nil
}

func viaJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var filtersOnce sync.Once

// registerFilters installs the code generation filters. pongo2 filters are
// process wide, so an existing filter of the same name is left alone.
func registerFilters() {
	filtersOnce.Do(func() {
		filters := map[string]pongo2.FilterFunction{
			"trim":       stringFilter(strings.TrimSpace),
			"lowerfirst": stringFilter(lowerFirst),
			"camel":      stringFilter(naming.CamelCase),
			"proper":     stringFilter(naming.ProperCase),
			"upper":      stringFilter(naming.Upper),
			"lower":      stringFilter(naming.Lower),
			"quote":      stringFilter(strconv.Quote),
			"comment":    filterComment,
		}
		for name, fn := range filters {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

func stringFilter(fn func(string) string) pongo2.FilterFunction {
	return func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(fn(in.String())), nil
	}
}

// filterComment turns text into a block of Go line comments. The parameter
// is the indentation placed before every "//".
func filterComment(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	indent := ""
	if param != nil && !param.IsNil() {
		indent = param.String()
	}
	text := strings.TrimRight(in.String(), "\n")
	if text == "" {
		return pongo2.AsValue(""), nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line = strings.TrimRight(line, " \t"); line == "" {
			lines[i] = indent + "//"
		} else {
			lines[i] = indent + "// " + line
		}
	}
	return pongo2.AsValue(strings.Join(lines, "\n")), nil
}

// lowerFirst lowercases the first non-blank rune.
func lowerFirst(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(" \t\r\n", r) })
	if i < 0 {
		return s
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	return s[:i] + string(unicode.ToLower(r)) + s[i+size:]
}
