// Package config loads schemagen CLI configuration.
//
// Sources are layered, lowest precedence first: built-in defaults,
// schemagen.yaml, SCHEMAGEN_ environment variables and finally flags that
// were set explicitly on the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultSchema    = "schema.yaml"
	DefaultOutput    = "."
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	EnvPrefix = "SCHEMAGEN_"
)

// FileNames are looked up in the working directory when no config file is
// given.
var FileNames = []string{"schemagen.yaml", "schemagen.yml"}

// Config holds every CLI setting.
type Config struct {
	Schema      string   `koanf:"schema"`
	Output      string   `koanf:"output"`
	Templates   string   `koanf:"templates"`
	Package     string   `koanf:"package"`
	SearchPaths []string `koanf:"search_paths"`
	Builtins    []string `koanf:"builtins"`
	// Preset is a JSON document of class overrides applied after building.
	Preset    string `koanf:"preset"`
	Validate  bool   `koanf:"validate"`
	OpenAPI   bool   `koanf:"openapi"`
	StripHTML bool   `koanf:"strip_html"`
	Quiet     bool   `koanf:"quiet"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// flagKeys maps flag names whose config key is not the snake_case form of
// the flag.
var flagKeys = map[string]string{
	"search-path": "search_paths",
}

var listKeys = map[string]bool{
	"search_paths": true,
	"builtins":     true,
}

// Load reads configuration. cfgFile may be empty, in which case FileNames
// are tried in the working directory. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"schema":     DefaultSchema,
		"output":     DefaultOutput,
		"log_level":  DefaultLogLevel,
		"log_format": DefaultLogFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	used, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", used, err)
		}
	}

	// SCHEMAGEN_SEARCH_PATHS=a,b -> search_paths: [a b]
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = used
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Check validates enumerated settings.
func (c *Config) Check() error {
	var errs []error
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log_level %q", c.LogLevel))
	}
	if strings.TrimSpace(c.Schema) == "" {
		errs = append(errs, errors.New("config: schema path is required"))
	}
	return errors.Join(errs...)
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, filepath.Clean(part))
		}
	}
	return out
}
