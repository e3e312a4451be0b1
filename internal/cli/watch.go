package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-schemagen/internal/cli/config"
	"github.com/goliatone/go-schemagen/internal/logging"
	"github.com/goliatone/go-schemagen/pkg/manifest"
	"github.com/goliatone/go-schemagen/pkg/openapi"
	"github.com/goliatone/go-schemagen/pkg/registry"
)

const watchDebounce = 100 * time.Millisecond

// watchedExtensions are the inputs of a run: schema layers and templates.
var watchedExtensions = []string{".yaml", ".yml", ".json", ".hcl", ".tpl"}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [schemaPath] [outputPath]",
		Short: "Regenerate whenever a schema layer or template changes",
		Long: `Watch runs generate once and then again every time a file next to the
schema, in a search path or in the templates directory changes. Runs never
overlap; changes arriving during a run schedule the next one.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := applyArgs(configFrom(cmd.Context()), args)
			printer := NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Quiet)
			run := func(ctx context.Context) {
				rep, err := runGenerate(ctx, cfg)
				if err != nil {
					printer.Fatal(err)
					return
				}
				printer.Report(rep)
				if err := outcome(rep); err != nil {
					printer.Fatal(err)
				}
			}
			return watch(cmd.Context(), watchDirs(cfg), watchDebounce, run)
		},
	}
	addGenerateFlags(cmd)
	return cmd
}

// watchDirs lists the directories holding run inputs, without duplicates.
func watchDirs(cfg *config.Config) []string {
	dirs := []string{filepath.Dir(cfg.Schema)}
	dirs = append(dirs, cfg.SearchPaths...)
	if cfg.Templates != "" {
		dirs = append(dirs, cfg.Templates)
	}
	for _, b := range cfg.Builtins {
		dirs = append(dirs, filepath.Dir(b))
	}
	for i, d := range dirs {
		dirs[i] = filepath.Clean(d)
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// relevant reports whether an event should trigger a run. Outputs that are
// never inputs are ignored so a run does not schedule another.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(event.Name)
	if base == registry.FileName || base == openapi.FileName || base == manifest.FileName {
		return false
	}
	return slices.Contains(watchedExtensions, filepath.Ext(base))
}

// watch calls run once, then again debounce after the last relevant event,
// until ctx is done. run is always called from this goroutine.
func watch(ctx context.Context, dirs []string, debounce time.Duration, run func(context.Context)) error {
	logger := logging.FromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cli: create watcher: %w", err)
	}
	defer w.Close()
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("cli: watch %s: %w", dir, err)
		}
		logger.Info("watch: watching", "dir", dir)
	}

	run(ctx)

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if relevant(event) {
				logger.Debug("watch: change", "path", event.Name, "op", event.Op.String())
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: error", "err", err)
		case <-timer.C:
			run(ctx)
		}
	}
}
