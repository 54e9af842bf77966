package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/gramlink/cmd/gramlink/commands"
	"github.com/teranos/gramlink/logger"
)

var rootCmd = &cobra.Command{
	Use:   "gramlink",
	Short: "gramlink - ANTLR grammars to linkable native libraries",
	Long: `gramlink - Build native libraries from ANTLR grammars.

gramlink runs the ANTLR tool to generate C++ from grammar files, compiles the
generated sources into a static archive, and prints the link directives a
host build needs to consume it. Directives go to stdout, everything else to
stderr.

Available commands:
  generate - Run the grammar generator once and list what it produced
  build    - Build every library declared in gramlink.hcl
  watch    - Rebuild libraries whenever their inputs change
  acquire  - Build the generator jar or the C++ runtime from source
  config   - Show or initialize tool configuration
  version  - Show version information

Examples:
  gramlink build                   # Build all libraries in ./gramlink.hcl
  gramlink build --only json       # Build a single library
  gramlink generate -g Expr.g4 -o gen --visitor
  gramlink config show --format yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logJSON, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(logJSON, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the tool configuration file (default: search for "+commands.ConfigFileName+")")
	rootCmd.PersistentFlags().Bool("json-progress", false, "Report progress as JSON lines on stderr")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.AcquireCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		os.Exit(1)
	}
}
