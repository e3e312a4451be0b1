package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-schemagen/pkg/model"
)

// Transformer mutates the built class models before decorators run.
// Implementations can rewrite documentation, add imports, or extend the
// manifest entries of any class.
type Transformer interface {
	Transform(ctx context.Context, result *model.Result) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, result *model.Result) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, result *model.Result) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, result)
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file.
// Classes are addressed by schema type name and properties by name:
//
//	{
//	  "classes": {
//	    "Base": {
//	      "documentation": "Replacement doc.",
//	      "extraImports": ["fmt"],
//	      "extraPlugInfo": {"implementsComputeExtent": true},
//	      "properties": {"count": {"documentation": "How many."}}
//	    }
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Classes map[string]jsonClassPatch `json:"classes"`
}

type jsonClassPatch struct {
	Documentation string                       `json:"documentation"`
	ExtraImports  []string                     `json:"extraImports"`
	ExtraPlugInfo map[string]any               `json:"extraPlugInfo"`
	Properties    map[string]jsonPropertyPatch `json:"properties"`
}

type jsonPropertyPatch struct {
	Documentation string `json:"documentation"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches. A patch naming an unknown class
// or property is an error.
func (t *JSONPresetTransformer) Transform(ctx context.Context, result *model.Result) error {
	if result == nil {
		return errors.New("json preset transformer: result is nil")
	}

	for _, name := range slices.Sorted(maps.Keys(t.document.Classes)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		cls := findClass(result.Classes, name)
		if cls == nil {
			return fmt.Errorf("json preset transformer: class %q not found", name)
		}
		if err := applyClassPatch(cls, t.document.Classes[name]); err != nil {
			return fmt.Errorf("json preset transformer: class %q: %w", name, err)
		}
	}
	return nil
}

func applyClassPatch(cls *model.ClassModel, patch jsonClassPatch) error {
	if patch.Documentation != "" {
		cls.Documentation = patch.Documentation
	}
	for _, imp := range patch.ExtraImports {
		if imp = strings.TrimSpace(imp); imp != "" && !slices.Contains(cls.ExtraImports, imp) {
			cls.ExtraImports = append(cls.ExtraImports, imp)
		}
	}
	if len(patch.ExtraPlugInfo) > 0 {
		if cls.ExtraPlugInfo == nil {
			cls.ExtraPlugInfo = make(map[string]any, len(patch.ExtraPlugInfo))
		}
		maps.Copy(cls.ExtraPlugInfo, patch.ExtraPlugInfo)
	}
	for name, prop := range patch.Properties {
		target := findOwnProperty(cls, name)
		if target == nil {
			return fmt.Errorf("property %q not found", name)
		}
		if prop.Documentation != "" {
			target.Documentation = prop.Documentation
		}
	}
	return nil
}

func findClass(classes []*model.ClassModel, name string) *model.ClassModel {
	for _, cls := range classes {
		if cls.SchemaTypeName == name {
			return cls
		}
	}
	return nil
}

// findOwnProperty looks name up among the attributes and relationships the
// class declares itself, by normalized or raw name.
func findOwnProperty(cls *model.ClassModel, name string) *model.PropertyModel {
	for _, props := range [][]*model.PropertyModel{cls.OwnAttrs(), cls.OwnRels()} {
		for _, prop := range props {
			if prop.Name == name || prop.RawName == name {
				return prop
			}
		}
	}
	return nil
}
