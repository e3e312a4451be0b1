// Package cli implements the schemagen command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-schemagen/internal/cli/config"
	"github.com/goliatone/go-schemagen/internal/logging"
)

// Version information, set at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "schemagen",
		Short: "Generate Go sources, a plugin manifest and a registry from schema layers",
		Long: `schemagen reads a layered schema document and generates one Go file per
class, a token table, a plugin manifest and a flattened registry
(generatedSchema.yaml) that later runs can load as builtins.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
			if cfg.File != "" {
				logger.Debug("cli: using config file", "path", cfg.File)
			}
			ctx := logging.WithLogger(cmd.Context(), logger)
			ctx = context.WithValue(ctx, configKey{}, cfg)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}} (" + GitCommit + ")\n")

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./schemagen.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	root.PersistentFlags().String("log-format", "", "log format (text|json)")
	root.PersistentFlags().BoolP("quiet", "q", false, "only print errors")

	_ = root.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(NewGenerateCommand())
	root.AddCommand(NewWatchCommand())
	root.AddCommand(NewInitCommand())
	return root
}

// Execute runs the root command with ctx and prints a fatal error, if any.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		NewPrinter(root.OutOrStdout(), root.ErrOrStderr(), false).Fatal(err)
	}
	return err
}

// errReported marks failures whose details were already printed.
var errReported = errors.New("cli: run failed")

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return &config.Config{
		Schema:    config.DefaultSchema,
		Output:    config.DefaultOutput,
		LogLevel:  config.DefaultLogLevel,
		LogFormat: config.DefaultLogFormat,
	}
}
