package manifest_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/manifest"
	pkgmodel "github.com/goliatone/go-schemagen/pkg/model"
	"github.com/goliatone/go-schemagen/pkg/report"
)

const seed = `{
    "Plugins": [
        {
            "Info": {
                "Types": {}
            },
            "LibraryPath": "example.com/shapes",
            "Name": "shapes",
            "Root": "..",
            "Type": "library"
        }
    ]
}
`

func classes() []*pkgmodel.ClassModel {
	return []*pkgmodel.ClassModel{
		{
			SchemaTypeName:           "Base",
			GeneratedClassName:       "ShapesBase",
			ParentGeneratedClassName: "CoreTyped",
			IsConcrete:               true,
			ExtraPlugInfo:            map[string]any{"providesUsdShadeConnectableAPIBehavior": true, "bases": []any{"ignored"}},
		},
		{
			SchemaTypeName:           "Abstract",
			GeneratedClassName:       "ShapesAbstract",
			ParentGeneratedClassName: "ShapesBase",
		},
	}
}

func lib() pkgmodel.Library {
	return pkgmodel.Library{Name: "shapes", Path: "example.com/shapes"}
}

func seedFunc() (string, error) { return seed, nil }

func typesOf(t *testing.T, content string) map[string]any {
	t.Helper()
	var info map[string]any
	if err := json.Unmarshal(manifest.StripComments([]byte(content)), &info); err != nil {
		t.Fatalf("decode: %v\n%s", err, content)
	}
	plugin := info["Plugins"].([]any)[0].(map[string]any)
	return plugin["Info"].(map[string]any)["Types"].(map[string]any)
}

func TestMerge_SeedsMissingManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), manifest.FileName)
	rep := report.New()
	if err := manifest.New(false).Merge(context.Background(), path, lib(), classes(), seedFunc, rep); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got, _ := rep.File(path); got.Status != report.StatusWrote {
		t.Fatalf("expected wrote, got %+v", got)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.HasPrefix(content, "# Portions of this file auto-generated by schemagen.") {
		t.Fatalf("missing header:\n%s", content)
	}
	want := map[string]any{
		"ShapesBase": map[string]any{
			"providesUsdShadeConnectableAPIBehavior": true,
			"bases":                                  []any{"CoreTyped"},
			"autoGenerated":                          true,
			"alias":                                  map[string]any{"SchemaBase": "Base"},
		},
		"ShapesAbstract": map[string]any{
			"bases":         []any{"ShapesBase"},
			"autoGenerated": true,
		},
	}
	if diff := cmp.Diff(want, typesOf(t, content)); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(content, "\n    \"Plugins\": [") {
		t.Fatalf("expected 4-space indentation:\n%s", content)
	}
}

func TestMerge_KeepsHandWrittenEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), manifest.FileName)
	existing := `# A comment that is dropped.
{
    "Plugins": [
        {
            "Info": {
                "Types": {
                    "ShapesGone": {"autoGenerated": true, "bases": ["SchemaBase"]},
                    "ShapesHelper": {"bases": ["SchemaBase"], "weight": 2.50}
                }
            },
            "Name": "shapes"
        },
        {"Name": "other", "Info": {"Types": {"OtherThing": {"autoGenerated": true}}}}
    ]
}
`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rep := report.New()
	if err := manifest.New(false).Merge(context.Background(), path, lib(), classes(), seedFunc, rep); err != nil {
		t.Fatalf("merge: %v", err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Contains(content, "A comment that is dropped") {
		t.Fatalf("comment survived:\n%s", content)
	}
	if !strings.Contains(content, `"weight": 2.50`) {
		t.Fatalf("hand-written numbers must be kept verbatim:\n%s", content)
	}
	types := typesOf(t, content)
	var names []string
	for name := range types {
		names = append(names, name)
	}
	for _, want := range []string{"ShapesAbstract", "ShapesBase", "ShapesHelper"} {
		if _, ok := types[want]; !ok {
			t.Fatalf("missing %s in %v", want, names)
		}
	}
	if _, ok := types["ShapesGone"]; ok {
		t.Fatalf("stale auto-generated entry survived")
	}
	if !strings.Contains(content, `"OtherThing"`) {
		t.Fatalf("other plugins must not be touched:\n%s", content)
	}

	second := report.New()
	if err := manifest.New(false).Merge(context.Background(), path, lib(), classes(), seedFunc, second); err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if got, _ := second.File(path); got.Status != report.StatusUnchanged {
		t.Fatalf("expected unchanged on rerun, got %s", got.Status)
	}
}

func TestUpdate_TopLevelTypes(t *testing.T) {
	content, err := manifest.Update([]byte(`{"Types": {}}`), "shapes", classes())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var info map[string]map[string]any
	if err := json.Unmarshal(manifest.StripComments([]byte(content)), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := info["Types"]["ShapesBase"]; !ok {
		t.Fatalf("expected class under top-level Types:\n%s", content)
	}
}

func TestUpdate_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"malformed", `{"Plugins": [`, manifest.ErrMalformed},
		{"plugins not a list", `{"Plugins": {}}`, manifest.ErrMalformed},
		{"missing plugin", `{"Plugins": [{"Name": "other"}]}`, manifest.ErrPluginNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manifest.Update([]byte(tc.doc), "shapes", classes())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMerge_ReportsAndSkipsBrokenManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), manifest.FileName)
	broken := `{"Plugins": [{"Name": "other"}]}`
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rep := report.New()
	if err := manifest.New(false).Merge(context.Background(), path, lib(), classes(), seedFunc, rep); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(rep.Errors()) != 1 || len(rep.Files) != 0 {
		t.Fatalf("expected one reported error and no file result, got %+v", rep)
	}
	data, _ := os.ReadFile(path)
	if string(data) != broken {
		t.Fatalf("broken manifest must be left alone")
	}
}

func TestMerge_SeedErrorIsReturned(t *testing.T) {
	path := filepath.Join(t.TempDir(), manifest.FileName)
	boom := errors.New("boom")
	err := manifest.New(false).Merge(context.Background(), path, lib(), classes(), func() (string, error) { return "", boom }, report.New())
	if !errors.Is(err, boom) {
		t.Fatalf("expected seed error, got %v", err)
	}
}
