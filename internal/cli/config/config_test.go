package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("templates", "t", "", "")
	flags.StringP("package", "n", "", "")
	flags.StringSlice("search-path", nil, "")
	flags.StringSlice("builtins", nil, "")
	flags.BoolP("validate", "v", false, "")
	flags.Bool("strip-html", false, "")
	flags.String("log-level", "", "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := &Config{
		Schema:    DefaultSchema,
		Output:    DefaultOutput,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	doc := "schema: layers/root.yaml\npackage: fromfile\ntemplates: tpl\nsearch_paths: [vendor]\nopenapi: true\n"
	if err := os.WriteFile(filepath.Join(dir, "schemagen.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SCHEMAGEN_PACKAGE", "fromenv")
	t.Setenv("SCHEMAGEN_BUILTINS", "a.yaml, b.yaml")

	flags := testFlags()
	if err := flags.Parse([]string{"-t", "override", "--strip-html", "--search-path", "x", "--search-path", "y"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.File != "schemagen.yaml" {
		t.Fatalf("expected schemagen.yaml to be used, got %q", cfg.File)
	}
	if cfg.Schema != "layers/root.yaml" || !cfg.OpenAPI {
		t.Fatalf("file values missing: %+v", cfg)
	}
	if cfg.Package != "fromenv" {
		t.Fatalf("env should override the file, got package %q", cfg.Package)
	}
	if cfg.Templates != "override" || !cfg.StripHTML {
		t.Fatalf("flags should override everything: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"x", "y"}, cfg.SearchPaths); diff != "" {
		t.Fatalf("search paths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.yaml", "b.yaml"}, cfg.Builtins); diff != "" {
		t.Fatalf("builtins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCHEMAGEN_VALIDATE", "true")

	flags := testFlags()
	if err := flags.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Validate {
		t.Fatalf("an unset flag must not reset the environment value")
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("nope.yaml", nil); err == nil {
		t.Fatalf("expected an error for a missing explicit config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCHEMAGEN_LOG_FORMAT", "xml")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected log_format validation error")
	}
}

func TestConfig_Check(t *testing.T) {
	cfg := &Config{Schema: "schema.yaml", LogLevel: "warning", LogFormat: "JSON", Validate: true}
	if err := cfg.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}

	cfg = &Config{Schema: " ", LogLevel: "loud", LogFormat: "xml"}
	err := cfg.Check()
	if err == nil {
		t.Fatalf("expected check errors")
	}
	for _, fragment := range []string{"log_format", "log_level", "schema path"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %v", fragment, err)
		}
	}
}
