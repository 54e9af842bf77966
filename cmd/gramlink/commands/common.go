package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/teranos/gramlink/acquire"
	"github.com/teranos/gramlink/config"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/logger"
	"github.com/teranos/gramlink/pipeline"
)

// ConfigFileName is the tool configuration searched for when --config is not given
const ConfigFileName = config.FileName

// loadConfig loads and validates the configuration named by --config
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.File != "" {
		logger.Debugw("Loaded configuration", logger.FieldFile, cfg.File)
	}
	return cfg, nil
}

// progressFor picks the progress reporter selected by --json-progress
func progressFor(cmd *cobra.Command) pipeline.ProgressEmitter {
	if asJSON, _ := cmd.Flags().GetBool("json-progress"); asJSON {
		return pipeline.NewJSONEmitter(cmd.ErrOrStderr())
	}
	verbosity, _ := cmd.Flags().GetCount("verbose")
	return pipeline.NewCLIEmitter(verbosity).WithWriter(cmd.ErrOrStderr())
}

func newAcquirer(cfg *config.Config) *acquire.Acquirer {
	return &acquire.Acquirer{Config: cfg, Log: logger.Named("acquire")}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// FormatError renders err with its hints and details on following lines
func FormatError(err error) string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(err.Error())
	for _, detail := range errors.GetAllDetails(err) {
		for _, line := range strings.Split(strings.TrimRight(detail, "\n"), "\n") {
			b.WriteString("\n  ")
			b.WriteString(line)
		}
	}
	for _, hint := range errors.GetAllHints(err) {
		b.WriteString("\nHint: ")
		b.WriteString(hint)
	}
	return b.String()
}
