package compose

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/schema"
)

func TestFlatten_BakesInheritedValues(t *testing.T) {
	stage := openTestStage(t, testFS())

	flat, err := stage.Flatten()
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if diff := cmp.Diff([]string{"GLOBAL", "Base", "Derived", "Typed"}, flat.Classes.Keys()); diff != "" {
		t.Fatalf("flattened classes mismatch (-want +got):\n%s", diff)
	}

	derived, ok := flat.Class("Derived")
	if !ok {
		t.Fatalf("expected Derived in flattened layer")
	}
	if len(derived.Inherits) != 0 {
		t.Fatalf("flattened class must not inherit, got %v", derived.Inherits)
	}

	count, ok := derived.Property("count")
	if !ok {
		t.Fatalf("expected inherited count to be declared on Derived")
	}
	want := &schema.PropertySpec{
		Name:             "count",
		Kind:             schema.KindAttribute,
		TypeName:         "int",
		Variability:      schema.Varying,
		Default:          int64(0),
		HasDefault:       true,
		Documentation:    "Number of things.",
		HasDocumentation: true,
	}
	if diff := cmp.Diff(want, count); diff != "" {
		t.Fatalf("count mismatch (-want +got):\n%s", diff)
	}

	label, _ := derived.Property("label")
	if label.TypeName != "string" || label.HasDefault {
		t.Fatalf("unexpected label: %+v", label)
	}
}

func TestFlatten_DoesNotMutateSourceLayers(t *testing.T) {
	stage := openTestStage(t, testFS())
	flat, err := stage.Flatten()
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	derived, _ := flat.Class("Derived")
	count, _ := derived.Property("count")
	count.TypeName = "double"

	base, _ := stage.RootLayer().Class("Base")
	original, _ := base.Property("count")
	if original.TypeName != "int" {
		t.Fatalf("flattened specs must be copies, source changed to %q", original.TypeName)
	}
}
