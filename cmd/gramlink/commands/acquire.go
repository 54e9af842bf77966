package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AcquireCmd builds the external artifacts gramlink depends on
var AcquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Build the generator jar or the C++ runtime from source",
	Long: `Resolve the artifacts a build needs, building them when they are missing.

  generator - the ANTLR tool jar, built with Maven from generator.source_dir
  runtime   - the C++ runtime, built and installed with CMake into runtime.root

Artifacts that already exist are reported and left alone.`,
}

var acquireGeneratorCmd = &cobra.Command{
	Use:   "generator",
	Short: "Resolve or build the generator jar",
	Args:  cobra.NoArgs,
	RunE:  runAcquireGenerator,
}

var acquireRuntimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Resolve or build the C++ runtime",
	Args:  cobra.NoArgs,
	RunE:  runAcquireRuntime,
}

var acquireCMake, acquireMaven string

func init() {
	acquireGeneratorCmd.Flags().StringVar(&acquireMaven, "mvn", "", "Maven executable (default: mvn)")
	acquireRuntimeCmd.Flags().StringVar(&acquireCMake, "cmake", "", "CMake executable (default: cmake)")

	AcquireCmd.AddCommand(acquireGeneratorCmd)
	AcquireCmd.AddCommand(acquireRuntimeCmd)
}

func runAcquireGenerator(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a := newAcquirer(cfg)
	a.Maven = acquireMaven
	jar, err := a.EnsureJar(ctx)
	if err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Generator jar (%s)", jar.Source)
	fmt.Fprintln(cmd.OutOrStdout(), jar.Path)
	return nil
}

func runAcquireRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a := newAcquirer(cfg)
	a.CMake = acquireCMake
	layout, source, err := a.EnsureRuntime(ctx)
	if err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("C++ runtime (%s)", source)
	fmt.Fprintln(cmd.OutOrStdout(), layout.Root)
	return nil
}
