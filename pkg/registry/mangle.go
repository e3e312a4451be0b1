package registry

import (
	"strings"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Registered types pin the value type and variability of their properties,
// so flattening a schema that re-authors a registered type would bake the
// old definition. Renaming every type in the session layer for the duration
// of the flatten keeps the lookup from matching; the names are restored on
// the flattened output.

const manglePrefix = "__MANGLED_TO_AVOID_BUILTINS__"

func mangle(typeName string) string {
	return manglePrefix + typeName
}

func demangle(typeName string) string {
	return strings.ReplaceAll(typeName, manglePrefix, "")
}

// mangleSession authors a mangled type name for every typed root class in the
// session layer and returns a func that removes those edits again.
func mangleSession(stage schema.Stage) (func(), error) {
	session := stage.SessionLayer()
	typeNames := map[string]string{}
	var names []string
	for _, name := range stage.RootClasses() {
		cc, err := stage.Class(name)
		if err != nil {
			return nil, err
		}
		if cc.TypeName == "" || session.Classes.Has(name) {
			continue
		}
		typeNames[name] = cc.TypeName
		names = append(names, name)
	}
	// Every type name is read before the first one is authored.
	for _, name := range names {
		session.Classes.Set(name, &schema.ClassSpec{
			Name:      name,
			Specifier: schema.SpecifierOver,
			TypeName:  mangle(typeNames[name]),
		})
	}
	return func() {
		for _, name := range names {
			session.RemoveClass(name)
		}
	}, nil
}

func demangleLayer(layer *schema.Layer) {
	for _, cls := range layer.Classes.All() {
		if cls.TypeName != "" {
			cls.TypeName = demangle(cls.TypeName)
		}
	}
}
