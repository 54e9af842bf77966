package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/logger"
	"github.com/teranos/gramlink/manifest"
	"github.com/teranos/gramlink/pipeline"
)

// BuildCmd builds the libraries declared in a manifest
var BuildCmd = &cobra.Command{
	Use:   "build [manifest]",
	Short: "Build every library declared in gramlink.hcl",
	Long: `Build native libraries from the manifest (default: ./gramlink.hcl).

For each library the grammar generator runs, the generated C++ is compiled
into lib<name>.a in the library's out_dir, and link directives are printed
to stdout. Libraries whose inputs and configuration are unchanged since the
last build are skipped; their recorded directives are printed again.

Examples:
  gramlink build
  gramlink build --only json --only expr
  gramlink build --link-mode static --force
  gramlink build path/to/gramlink.hcl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

var buildFlags struct {
	force    bool
	linkMode string
	only     []string
}

func init() {
	BuildCmd.Flags().BoolVarP(&buildFlags.force, "force", "f", false, "Rebuild libraries even when they are up to date")
	BuildCmd.Flags().StringVar(&buildFlags.linkMode, "link-mode", "", "Override the runtime link mode: static or dynamic")
	BuildCmd.Flags().StringSliceVar(&buildFlags.only, "only", nil, "Build only the named libraries (repeatable)")
}

func manifestPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return manifest.DefaultFileName
}

// buildOptions loads everything a pipeline run needs
func buildOptions(cmd *cobra.Command, args []string) (pipeline.Options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return pipeline.Options{}, err
	}
	m, err := manifest.Load(manifestPath(args), cfg.Build.OutDir)
	if err != nil {
		return pipeline.Options{}, err
	}
	var mode cppruntime.LinkMode
	if buildFlags.linkMode != "" {
		mode, err = cppruntime.ParseLinkMode(buildFlags.linkMode)
		if err != nil {
			return pipeline.Options{}, err
		}
	}
	return pipeline.Options{
		Manifest: m,
		Config:   cfg,
		LinkMode: mode,
		Force:    buildFlags.force,
		Only:     buildFlags.only,
		Acquirer: newAcquirer(cfg),
		Emitter:  directive.NewWriter(os.Stdout),
		Progress: progressFor(cmd),
		Log:      logger.Named("pipeline"),
	}, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	_, err = pipeline.Run(ctx, opts)
	return err
}
