// Package loader reads schema layers from disk or an fs.FS and decodes them
// with the registered layer formats.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Options configures a Loader.
type Options struct {
	// FileSystem backs fs sources.
	FileSystem fs.FS
	// SearchPaths are consulted, in order, when a sublayer is not found next
	// to the layer that references it.
	SearchPaths []string
	Formats     []schema.Format
}

// Loader fetches layer documents and decodes them.
type Loader struct {
	fs          fs.FS
	searchPaths []string
	formats     []schema.Format
}

// New constructs a Loader from pre-resolved options.
func New(options Options) *Loader {
	return &Loader{
		fs:          options.FileSystem,
		searchPaths: append([]string(nil), options.SearchPaths...),
		formats:     append([]schema.Format(nil), options.Formats...),
	}
}

// Load fetches a document from the provided source.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, errors.New("layer loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}
	data, err := l.read(src)
	if err != nil {
		return schema.Document{}, fmt.Errorf("layer loader: read %s: %w", src.Location(), err)
	}
	return schema.NewDocument(src, data)
}

func (l *Loader) read(src schema.Source) ([]byte, error) {
	name := src.Location()
	if name == "" || name == "." {
		return nil, errors.New("empty location")
	}
	switch src.Kind() {
	case schema.SourceKindFile:
		return os.ReadFile(name)
	case schema.SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("no filesystem configured")
		}
		if !fs.ValidPath(name) {
			return nil, fmt.Errorf("invalid fs path %q", name)
		}
		return fs.ReadFile(l.fs, name)
	default:
		return nil, fmt.Errorf("unsupported source kind %q", src.Kind())
	}
}

// Decode loads src and parses it with the format matching its extension.
func (l *Loader) Decode(ctx context.Context, src schema.Source) (*schema.Layer, error) {
	doc, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	format, err := schema.FormatFor(doc, l.formats...)
	if err != nil {
		return nil, err
	}
	return format.Decode(doc)
}

// Resolve locates a sublayer reference made from the layer at from. The
// reference is tried next to the referencing layer first, then against each
// search path.
func (l *Loader) Resolve(from schema.Source, ref string) (schema.Source, error) {
	if ref == "" {
		return nil, errors.New("layer loader: empty sublayer reference")
	}

	candidates := []schema.Source{from.Sibling(ref)}
	for _, dir := range l.searchPaths {
		switch from.Kind() {
		case schema.SourceKindFS:
			candidates = append(candidates, schema.SourceFromFS(path.Join(filepath.ToSlash(dir), filepath.ToSlash(ref))))
		default:
			candidates = append(candidates, schema.SourceFromFile(filepath.Join(dir, ref)))
		}
	}

	for _, candidate := range candidates {
		if l.exists(candidate) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("layer loader: cannot resolve sublayer %q referenced from %s", ref, from.Location())
}

func (l *Loader) exists(src schema.Source) bool {
	var (
		info fs.FileInfo
		err  error
	)
	switch src.Kind() {
	case schema.SourceKindFS:
		if l.fs == nil || !fs.ValidPath(src.Location()) {
			return false
		}
		info, err = fs.Stat(l.fs, src.Location())
	default:
		info, err = os.Stat(src.Location())
	}
	return err == nil && !info.IsDir()
}
