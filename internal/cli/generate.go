package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-schemagen/internal/cli/config"
	"github.com/goliatone/go-schemagen/pkg/openapi"
	"github.com/goliatone/go-schemagen/pkg/orchestrator"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [schemaPath] [outputPath]",
		Short: "Generate code, manifest and registry for a schema",
		Long: `Generate reads schemaPath (default ./schema.yaml) with its sublayers and
writes the generated files into outputPath (default the current directory).

Files are only rewritten when their content changes. Text below the
"// --(BEGIN CUSTOM CODE)--" marker of a generated file is kept.`,
		Example: `  schemagen generate
  schemagen generate schema/widgets.yaml ./widgets
  schemagen generate --validate
  schemagen generate -t ./templates -n widgets --openapi`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := applyArgs(configFrom(cmd.Context()), args)
			printer := NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Quiet)
			rep, err := runGenerate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printer.Report(rep)
			if err := outcome(rep); err != nil {
				printer.Fatal(err)
				return fmt.Errorf("%w: %v", errReported, err)
			}
			return nil
		},
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("templates", "t", "", "directory of templates overriding the built-in ones")
	flags.BoolP("validate", "v", false, "report out-of-date files without writing anything")
	flags.StringP("package", "n", "", "Go package name of the generated files")
	flags.StringSlice("search-path", nil, "directory searched for sublayers (repeatable)")
	flags.StringSlice("builtins", nil, "registry file whose types are already registered (repeatable)")
	flags.Bool("openapi", false, "also export the registry as "+openapi.FileName)
	flags.Bool("strip-html", false, "strip HTML tags from registry documentation")
	flags.String("preset", "", "JSON file of class overrides applied before rendering")
}

// applyArgs returns a copy of cfg with the positional schema and output
// paths applied.
func applyArgs(cfg *config.Config, args []string) *config.Config {
	out := *cfg
	if len(args) > 0 {
		out.Schema = args[0]
	}
	if len(args) > 1 {
		out.Output = args[1]
	}
	return &out
}

func runGenerate(ctx context.Context, cfg *config.Config) (*report.Report, error) {
	options, err := orchestratorOptions(cfg)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:    schema.SourceFromFile(cfg.Schema),
		OutputDir: cfg.Output,
	})
}

func orchestratorOptions(cfg *config.Config) ([]orchestrator.Option, error) {
	options := []orchestrator.Option{
		orchestrator.WithSearchPaths(cfg.SearchPaths...),
		orchestrator.WithTemplatesDir(cfg.Templates),
		orchestrator.WithPackage(cfg.Package),
		orchestrator.WithValidate(cfg.Validate),
		orchestrator.WithStripHTML(cfg.StripHTML),
	}
	for _, path := range cfg.Builtins {
		options = append(options, orchestrator.WithBuiltins(schema.SourceFromFile(path)))
	}
	if cfg.OpenAPI {
		options = append(options, orchestrator.WithOpenAPI(openapi.Options{}))
	}
	if cfg.Preset != "" {
		data, err := os.ReadFile(cfg.Preset)
		if err != nil {
			return nil, fmt.Errorf("cli: read preset: %w", err)
		}
		transformer, err := orchestrator.NewJSONPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithSchemaTransformer(transformer))
	}
	return options, nil
}

// outcome turns a completed run into the command result. Per-file errors only
// fail the run when no file was produced at all.
func outcome(rep *report.Report) error {
	if !rep.Failed() {
		return nil
	}
	if n := rep.Count(report.StatusStale); n > 0 {
		return fmt.Errorf("%d generated file(s) are out of date", n)
	}
	return fmt.Errorf("no file was produced (%d error(s))", len(rep.Errors()))
}
