package model

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

var (
	errGlobalMissing      = errors.New("model builder: a GLOBAL class with libraryName and libraryPath custom data is required")
	errLibraryNameMissing = errors.New("model builder: GLOBAL custom data must define libraryName")
	errLibraryPathMissing = errors.New("model builder: GLOBAL custom data must define libraryPath")
)

// SchemaError is a fatal problem with the schema. Generation stops before any
// file is written.
type SchemaError struct {
	Class    string
	Property string
	Message  string
}

func (e *SchemaError) Error() string {
	subject := e.Class
	if e.Property != "" {
		subject += "." + e.Property
	}
	if subject == "" {
		return "model builder: " + e.Message
	}
	return fmt.Sprintf("model builder: %s: %s", subject, e.Message)
}

// TokenConflictError reports one token id mapped to two different values.
type TokenConflictError struct {
	ID       string
	Existing string
	Value    string
}

func (e *TokenConflictError) Error() string {
	return fmt.Sprintf("token table: token identifiers must map to exactly one token value; %s maps to %q and %q", e.ID, e.Existing, e.Value)
}

// InvalidTokenError reports a token id that cannot name a generated field.
// Values that are not identifiers belong in a token's value.
type InvalidTokenError struct {
	ID    string
	Value string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("token table: token identifiers must be identifiers; %q (value %q) is not", e.ID, e.Value)
}

// validateFields reports fields a schema may not author: relationship
// targets, attribute connections and relationship defaults.
func validateFields(class string, spec *schema.ClassSpec) []error {
	var errs []error
	for name, prop := range spec.Properties.All() {
		if len(prop.Targets) > 0 {
			errs = append(errs, &SchemaError{Class: class, Property: name, Message: "relationship targets cannot be specified in a schema"})
		}
		if len(prop.Connections) > 0 {
			errs = append(errs, &SchemaError{Class: class, Property: name, Message: "attribute connections cannot be specified in a schema"})
		}
		if prop.Kind == schema.KindRelationship && prop.HasDefault {
			errs = append(errs, &SchemaError{Class: class, Property: name, Message: "fallback values cannot be specified on a relationship"})
		}
	}
	return errs
}

func invalidFieldsError(errs []error) error {
	return fmt.Errorf("model builder: invalid fields specified in schema:\n%w", errors.Join(errs...))
}
