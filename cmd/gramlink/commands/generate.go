package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/display"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/generator"
	"github.com/teranos/gramlink/logger"
)

// GenerateCmd runs the grammar generator once
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the grammar generator once and list what it produced",
	Long: `Run the ANTLR tool on the given grammar files and classify the output.

With --format text the rerun-if-changed directives are printed to stdout and
a summary of generated sources and headers to stderr. With --format json or
yaml a single document holding the artifact set and the directives is
printed to stdout instead.

Examples:
  gramlink generate -g JSON.g4 -o gen/json
  gramlink generate -g ExprLexer.g4 -g ExprParser.g4 --visitor --package expr`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var generateFlags struct {
	grammars   []string
	outDir     string
	pkg        string
	noListener bool
	visitor    bool
	format     string
}

func init() {
	GenerateCmd.Flags().StringArrayVarP(&generateFlags.grammars, "grammar", "g", nil, "Grammar file, in order (repeatable)")
	GenerateCmd.Flags().StringVarP(&generateFlags.outDir, "out", "o", "", "Output directory (default: current directory)")
	GenerateCmd.Flags().StringVar(&generateFlags.pkg, "package", "", "Namespace for generated code")
	GenerateCmd.Flags().BoolVar(&generateFlags.noListener, "no-listener", false, "Do not generate listeners")
	GenerateCmd.Flags().BoolVar(&generateFlags.visitor, "visitor", false, "Generate visitors")
	GenerateCmd.Flags().StringVar(&generateFlags.format, "format", "text", "Output format: text, json, yaml")
	_ = GenerateCmd.MarkFlagRequired("grammar")
}

// generateOutput is the document printed by --format json|yaml
type generateOutput struct {
	Request    generator.Request      `json:"request" yaml:"request"`
	Artifacts  *generator.ArtifactSet `json:"artifacts" yaml:"artifacts"`
	Directives []string               `json:"directives" yaml:"directives"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(generateFlags.format, display.FormatText, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	jar, err := newAcquirer(cfg).EnsureJar(ctx)
	if err != nil {
		return err
	}

	req := generator.Request{
		GrammarFiles: generateFlags.grammars,
		OutDir:       generateFlags.outDir,
		NoListener:   generateFlags.noListener,
		Visitor:      generateFlags.visitor,
		Package:      generateFlags.pkg,
	}
	if req.OutDir != "" {
		if err := os.MkdirAll(req.OutDir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", req.OutDir)
		}
	}

	rec := &directive.Recorder{}
	var emitter directive.Emitter = rec
	if generateFlags.format == display.FormatText {
		emitter = directive.Tee(rec, directive.NewWriter(os.Stdout))
	}
	tool := &generator.Tool{
		Launcher: cfg.Generator.Launcher,
		Jar:      jar.Path,
		Language: cfg.Generator.Language,
		Runtime:  cfg.RuntimeLayout(),
		Emitter:  emitter,
		Log:      logger.Named("generator"),
	}
	set, err := tool.Generate(ctx, req)
	if err != nil {
		return err
	}

	out := generateOutput{Request: req, Artifacts: set}
	for _, d := range rec.Directives() {
		out.Directives = append(out.Directives, d.String())
	}
	return printGenerate(cmd, out)
}

func printGenerate(cmd *cobra.Command, out generateOutput) error {
	if generateFlags.format != display.FormatText {
		return display.Write(cmd.OutOrStdout(), out, generateFlags.format)
	}
	w := cmd.ErrOrStderr()
	set := out.Artifacts
	if set.Empty() {
		pterm.Warning.WithWriter(w).Printfln("No sources or headers under %s", set.SourceDir)
		return nil
	}
	pterm.Success.WithWriter(w).Printfln("Generated %d sources and %d headers in %s",
		len(set.SourceFiles), len(set.HeaderFiles), set.SourceDir)
	for _, f := range set.SourceFiles {
		fmt.Fprintf(w, "  %s %s\n", pterm.FgCyan.Sprint("source"), f)
	}
	for _, f := range set.HeaderFiles {
		fmt.Fprintf(w, "  %s %s\n", pterm.FgGray.Sprint("header"), f)
	}
	return nil
}
