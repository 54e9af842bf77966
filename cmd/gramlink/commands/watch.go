package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/teranos/gramlink/config"
	"github.com/teranos/gramlink/logger"
	"github.com/teranos/gramlink/pipeline"
	"github.com/teranos/gramlink/watch"
)

// WatchCmd rebuilds libraries whenever one of their inputs changes
var WatchCmd = &cobra.Command{
	Use:   "watch [manifest]",
	Short: "Rebuild libraries whenever their inputs change",
	Long: `Build once, then watch every file the build declared as a rerun trigger
(grammars, shim sources and headers) together with the manifest and the
configuration file. Changes are debounced by watch.debounce_ms.

A failed build is reported and the previous set of files stays watched.
Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	WatchCmd.Flags().StringVar(&buildFlags.linkMode, "link-mode", "", "Override the runtime link mode: static or dynamic")
	WatchCmd.Flags().StringSliceVar(&buildFlags.only, "only", nil, "Build only the named libraries (repeatable)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// The first load decides the debounce interval and the fixed watch set.
	opts, err := buildOptions(cmd, args)
	if err != nil {
		return err
	}
	progress := opts.Progress

	w, err := watch.New(opts.Config.DebounceInterval(), logger.Named("watch"))
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	build := func(ctx context.Context) ([]string, error) {
		opts, err := buildOptions(cmd, args)
		if err != nil {
			return nil, err
		}
		report, err := pipeline.Run(ctx, opts)
		if err != nil {
			// A failed library declared nothing yet; watch what the manifest names.
			return opts.Manifest.Inputs(), err
		}
		return report.Triggers(), nil
	}
	onError := func(err error) {
		progress.EmitError("build", err)
	}

	progress.EmitInfo("Watching for changes (Ctrl-C to stop)")
	return watch.Loop(ctx, w, build, watchedConfig(opts.Config, opts.Manifest.Path), onError)
}

// watchedConfig lists the configuration files a rebuild depends on
func watchedConfig(cfg *config.Config, manifestPath string) []string {
	files := []string{manifestPath}
	if cfg.File != "" {
		files = append(files, cfg.File)
	}
	return files
}
