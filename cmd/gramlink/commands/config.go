package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/gramlink/config"
)

// ConfigCmd shows and initializes tool configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize tool configuration",
	Long: `Manage gramlink tool configuration.

Configuration is read from gramlink.toml (found by searching upward from the
current directory, or named with --config) and from environment variables.
ANTLR_JAR, CXX, AR, CXXFLAGS and OUT_DIR are honored, as is the
GRAMLINK_<SECTION>_<KEY> form of every setting.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a gramlink.toml with default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configFormat string
	configForce  bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file (a backup is kept)")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	data, err := config.Marshal(cfg, configFormat)
	if err != nil {
		return err
	}
	switch configFormat {
	case config.FormatJSON:
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "# gramlink configuration\n%s", string(data))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.FileName
	}
	if err := config.WriteFile(path, config.Default(), configForce); err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Wrote %s", abs)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	where := cfg.File
	if where == "" {
		where = "defaults and environment"
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Configuration is valid (%s)", where)
	return nil
}
