package naming

import "testing"

func TestProperCase(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"a":                     "A",
		"points":                "Points",
		"faceVertexIndices":     "FaceVertexIndices",
		"primvars:displayColor": "PrimvarsDisplayColor",
		"xformOp:translate":     "XformOpTranslate",
		"trailing:":             "Trailing",
		"already_Proper":        "Already_Proper",
	}
	for in, want := range cases {
		if got := ProperCase(in); got != want {
			t.Errorf("ProperCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCamelCase(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"A":                  "a",
		"Points":             "points",
		"rightHanded":        "rightHanded",
		"primvars:st":        "primvarsSt",
		"Subdivision-Scheme": "subdivisionScheme",
	}
	for in, want := range cases {
		if got := CamelCase(in); got != want {
			t.Errorf("CamelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpperLower(t *testing.T) {
	if got := Upper("geomTokens"); got != "GEOMTOKENS" {
		t.Fatalf("Upper: got %q", got)
	}
	if got := Lower("GeomTokens"); got != "geomtokens" {
		t.Fatalf("Lower: got %q", got)
	}
}

func TestSanitizeDoc(t *testing.T) {
	doc := "First line.\n    Indented line.\n\tTabbed line."
	got := SanitizeDoc(doc, "\n// ")
	want := "First line.\n// Indented line.\n// Tabbed line."
	if got != want {
		t.Fatalf("SanitizeDoc:\n got %q\nwant %q", got, want)
	}
	if SanitizeDoc("", "\n// ") != "" {
		t.Fatalf("expected empty doc to stay empty")
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	for _, word := range []string{"default", "class", "switch", "interface", "type"} {
		if got := SanitizeIdentifier(word); got != word+"_" {
			t.Errorf("SanitizeIdentifier(%q) = %q", word, got)
		}
	}
	if got := SanitizeIdentifier("points"); got != "points" {
		t.Errorf("unexpected rewrite of non-reserved id: %q", got)
	}
}

func TestIsIdentifier(t *testing.T) {
	cases := map[string]bool{
		"points":   true,
		"_hidden":  true,
		"default_": true,
		"x2d":      true,
		"":         false,
		"2d":       false,
		"foo:bar":  false,
		"Off-Mode": false,
		"café":     false,
	}
	for id, want := range cases {
		if got := IsIdentifier(id); got != want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", id, got, want)
		}
	}
}
