package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-schemagen/internal/naming"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// TokenEntry is one canonical string constant of the generated library.
type TokenEntry struct {
	ID          string `json:"id"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// TokenTable maps token ids to entries. It has a single writer and is
// read-only once emission starts.
type TokenTable struct {
	entries map[string]*TokenEntry
}

// NewTokenTable returns an empty table.
func NewTokenTable() *TokenTable {
	return &TokenTable{entries: make(map[string]*TokenEntry)}
}

// Add inserts id -> value and returns the id actually used. Reserved ids gain
// a trailing underscore and an id that is not an identifier is an
// InvalidTokenError. Re-adding a known pair prepends desc to the description;
// a different value for a known id is a TokenConflictError.
func (t *TokenTable) Add(id, value, desc string) (string, error) {
	id = naming.SanitizeIdentifier(id)
	if !naming.IsIdentifier(id) {
		return "", &InvalidTokenError{ID: id, Value: value}
	}
	if t.entries == nil {
		t.entries = make(map[string]*TokenEntry)
	}
	if existing, ok := t.entries[id]; ok {
		if existing.Value != value {
			return "", &TokenConflictError{ID: id, Existing: existing.Value, Value: value}
		}
		existing.Description = desc + ", " + existing.Description
		return id, nil
	}
	t.entries[id] = &TokenEntry{ID: id, Value: value, Description: desc}
	return id, nil
}

// Get returns the entry stored under id.
func (t *TokenTable) Get(id string) (TokenEntry, bool) {
	entry, ok := t.entries[id]
	if !ok {
		return TokenEntry{}, false
	}
	return *entry, true
}

// Len returns the number of tokens.
func (t *TokenTable) Len() int {
	return len(t.entries)
}

// Sorted returns the entries ordered case-insensitively by id.
func (t *TokenTable) Sorted() []TokenEntry {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sortTokenIDs(ids)
	out := make([]TokenEntry, len(ids))
	for i, id := range ids {
		out[i] = *t.entries[id]
	}
	return out
}

// CollectTokens builds the token table shared by every generated class and
// records on each class the ids it references. Only the properties a class
// declares itself are scanned. Attributes are visited in reverse name order
// so merged descriptions read in name order.
func CollectTokens(classes []*ClassModel, lib Library) (*TokenTable, error) {
	table := NewTokenTable()
	add := func(cls *ClassModel, id, value, desc string) error {
		used, err := table.Add(id, value, desc)
		if err != nil {
			return err
		}
		if cls != nil {
			cls.AddToken(used)
		}
		return nil
	}

	for _, cls := range classes {
		attrs := slices.Clone(cls.OwnAttrs())
		slices.SortStableFunc(attrs, func(a, b *PropertyModel) int {
			return strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
		})
		for _, attr := range attrs {
			if err := add(cls, attr.Name, attr.RawName, cls.GeneratedClassName); err != nil {
				return nil, err
			}

			if vt, ok := schema.LookupValueType(attr.ValueType); ok && vt.IsToken() && attr.HasFallback {
				if fallback, ok := attr.Fallback.(string); ok && fallback != "" {
					if err := add(cls, naming.CamelCase(fallback), fallback, "Default value for "+attrSubject(cls, attr)); err != nil {
						return nil, err
					}
				}
			}
			for _, value := range attr.AllowedTokens {
				// An empty allowed value is legal but gets no named token.
				if value == "" {
					continue
				}
				if err := add(cls, naming.CamelCase(value), value, "Possible value for "+attrSubject(cls, attr)); err != nil {
					return nil, err
				}
			}
		}
		for _, rel := range cls.OwnRels() {
			if err := add(cls, rel.Name, rel.RawName, cls.GeneratedClassName); err != nil {
				return nil, err
			}
		}

		tokens, _ := cls.CustomData["schemaTokens"].(map[string]any)
		for _, id := range schema.SortedKeys(tokens) {
			value, desc := id, fmt.Sprintf("Special token for the %s schema.", cls.GeneratedClassName)
			if info, ok := tokens[id].(map[string]any); ok {
				if v, ok := stringData(info, "value"); ok {
					value = v
				}
				if v, ok := stringData(info, "doc"); ok {
					desc = v
				}
			}
			if err := add(cls, id, value, naming.SanitizeDoc(desc, " ")); err != nil {
				return nil, err
			}
		}
	}

	for _, token := range lib.Tokens {
		desc := token.Doc
		if desc == "" {
			desc = fmt.Sprintf("Special token for the %s library.", lib.Name)
		}
		if err := add(nil, token.ID, token.Value, naming.SanitizeDoc(desc, " ")); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// attrSubject names an attribute in token descriptions: its accessor, or its
// raw name when no accessor is generated.
func attrSubject(cls *ClassModel, attr *PropertyModel) string {
	if attr.APIName == "" {
		return fmt.Sprintf("%s schema attribute %s", cls.GeneratedClassName, attr.RawName)
	}
	return fmt.Sprintf("%s.Get%sAttr()", cls.GeneratedClassName, naming.ProperCase(attr.APIName))
}
