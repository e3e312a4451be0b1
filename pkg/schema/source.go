package schema

import (
	"path"
	"path/filepath"
	"strings"
)

// Source identifies where a schema layer originated so loaders can operate on
// files or fs.FS entries without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
	// Sibling resolves a path relative to this source, the way sublayer
	// references are authored.
	Sibling(rel string) Source
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
)

// fileSource identifies on-disk schema layers.
type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

func (s fileSource) Sibling(rel string) Source {
	if filepath.IsAbs(rel) {
		return SourceFromFile(rel)
	}
	return SourceFromFile(filepath.Join(filepath.Dir(s.path), rel))
}

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(p string) Source {
	return fileSource{path: filepath.Clean(p)}
}

// fsSource references a path within an fs.FS.
type fsSource struct {
	name string
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() SourceKind {
	return SourceKindFS
}

func (s fsSource) Sibling(rel string) Source {
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "/") {
		return SourceFromFS(strings.TrimPrefix(rel, "/"))
	}
	return SourceFromFS(path.Join(path.Dir(s.name), rel))
}

// SourceFromFS returns a Source identifying a resource inside an fs.FS. Names
// use forward slashes and are cleaned.
func SourceFromFS(name string) Source {
	return fsSource{name: path.Clean(filepath.ToSlash(name))}
}
