// Package manifest keeps the plugin manifest (plugInfo.json) of a generated
// library in step with its classes. Hand-written entries survive; entries the
// generator owns are flagged autoGenerated and replaced on every run.
package manifest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-schemagen/internal/logging"
	"github.com/goliatone/go-schemagen/pkg/emit"
	"github.com/goliatone/go-schemagen/pkg/model"
	"github.com/goliatone/go-schemagen/pkg/report"
)

// FileName is the manifest file inside the output directory.
const FileName = "plugInfo.json"

const header = "# Portions of this file auto-generated by schemagen.\n" +
	"# Edits will survive regeneration except for comments and\n" +
	"# changes to types with autoGenerated=true.\n"

var (
	// ErrMalformed reports a manifest that is not valid JSON once comments are
	// stripped.
	ErrMalformed = errors.New("manifest: malformed document")
	// ErrPluginNotFound reports a Plugins list without an entry for the library.
	ErrPluginNotFound = errors.New("manifest: plugin section not found")
)

// SeedFunc renders the manifest used when none exists yet.
type SeedFunc func() (string, error)

// Merger updates plugInfo.json files.
type Merger struct {
	writer emit.Writer
}

// New returns a merger. In validate mode nothing is written.
func New(validate bool) *Merger {
	return &Merger{writer: emit.Writer{Validate: validate}}
}

// Merge rewrites the manifest at path for classes. A malformed manifest or a
// missing plugin section is reported and the merge skipped; only a seed
// rendering failure is returned.
func (m *Merger) Merge(ctx context.Context, path string, lib model.Library, classes []*model.ClassModel, seed SeedFunc, rep *report.Report) error {
	if len(classes) == 0 {
		return nil
	}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		rendered, seedErr := seed()
		if seedErr != nil {
			return seedErr
		}
		existing = []byte(rendered)
	default:
		rep.AddFile(report.FileResult{Path: path, Status: report.StatusFailed, Err: err})
		rep.Errorf(path, "read manifest: %v", err)
		return nil
	}

	content, err := Update(existing, lib.Name, classes)
	if err != nil {
		rep.Errorf(path, "%v; manifest not updated", err)
		return nil
	}

	result := m.writer.Write(path, content)
	rep.AddFile(result)
	if result.Err != nil {
		rep.Errorf(path, "%v", result.Err)
	}
	logging.FromContext(ctx).Debug("manifest: merged", "path", path, "status", result.Status, "classes", len(classes))
	return nil
}

// Update merges class entries into doc and returns the new manifest content.
func Update(doc []byte, libraryName string, classes []*model.ClassModel) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(StripComments(doc)))
	dec.UseNumber()
	var info map[string]any
	if err := dec.Decode(&info); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if info == nil {
		return "", fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	types, err := typesSection(info, libraryName)
	if err != nil {
		return "", err
	}
	for name, entry := range types {
		if fields, ok := entry.(map[string]any); ok && fields["autoGenerated"] == true {
			delete(types, name)
		}
	}
	for _, cls := range classes {
		types[cls.GeneratedClassName] = classEntry(cls)
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(info); err != nil {
		return "", fmt.Errorf("manifest: encode: %w", err)
	}
	return buf.String(), nil
}

// StripComments drops every line whose first non-blank character is '#'.
func StripComments(doc []byte) []byte {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(doc))
	scanner.Buffer(make([]byte, 0, 64*1024), len(doc)+1)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// typesSection finds the Types map of the library's plugin, or the top-level
// Types map when the manifest has no Plugins list.
func typesSection(info map[string]any, libraryName string) (map[string]any, error) {
	plugins, ok := info["Plugins"]
	if !ok {
		return childMap(info, "Types")
	}
	list, ok := plugins.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: Plugins must be a list", ErrMalformed)
	}
	for _, item := range list {
		plugin, ok := item.(map[string]any)
		if !ok || plugin["Name"] != libraryName {
			continue
		}
		pluginInfo, err := childMap(plugin, "Info")
		if err != nil {
			return nil, err
		}
		return childMap(pluginInfo, "Types")
	}
	return nil, fmt.Errorf("%w for library %q", ErrPluginNotFound, libraryName)
}

func childMap(parent map[string]any, key string) (map[string]any, error) {
	switch v := parent[key].(type) {
	case map[string]any:
		return v, nil
	case nil:
		child := map[string]any{}
		parent[key] = child
		return child, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an object", ErrMalformed, key)
	}
}

func classEntry(cls *model.ClassModel) map[string]any {
	entry := make(map[string]any, len(cls.ExtraPlugInfo)+3)
	for k, v := range cls.ExtraPlugInfo {
		entry[k] = v
	}
	entry["bases"] = []any{cls.ParentGeneratedClassName}
	entry["autoGenerated"] = true
	if cls.IsConcrete {
		entry["alias"] = map[string]any{model.SchemaBaseGeneratedName: cls.SchemaTypeName}
	}
	return entry
}
