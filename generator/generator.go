// Package generator turns grammar files into native parser sources by
// running an external grammar-to-source tool, then classifies what it wrote.
//
// The Generator interface is the single capability the rest of the
// pipeline depends on, so tests can substitute canned output trees for the
// real tool (see generatortest).
package generator

import (
	"context"

	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/internal/procexec"
	"github.com/teranos/gramlink/logger"
	"go.uber.org/zap"
)

// Generator produces an ArtifactSet from a Request. Failures are
// *GenerateError values.
type Generator interface {
	Generate(ctx context.Context, req Request) (*ArtifactSet, error)
}

// Func adapts a function to the Generator interface.
type Func func(ctx context.Context, req Request) (*ArtifactSet, error)

func (f Func) Generate(ctx context.Context, req Request) (*ArtifactSet, error) {
	return f(ctx, req)
}

// DefaultLanguage is the generator target for native C++ output.
const DefaultLanguage = "Cpp"

// Tool runs the external generator as `<Launcher> -jar <Jar> ...`.
type Tool struct {
	Launcher string
	Jar      string
	Language string
	Runtime  cppruntime.Layout

	Runner  procexec.Runner
	Emitter directive.Emitter
	Log     *zap.SugaredLogger
}

// Command returns the process invocation for req.
func (t *Tool) Command(req Request) procexec.Command {
	launcher := t.Launcher
	if launcher == "" {
		launcher = "java"
	}
	lang := t.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	return procexec.Command{Name: launcher, Args: req.Args(t.Jar, lang)}
}

// Generate runs the generator synchronously. Every grammar file is declared
// as a rebuild trigger first. On a zero exit the resolved output directory
// is scanned and classified; partial output from a failed run is never
// scanned.
func (t *Tool) Generate(ctx context.Context, req Request) (*ArtifactSet, error) {
	log := logger.OrNop(t.Log)
	emitter := directive.OrDiscard(t.Emitter)
	runner := t.Runner
	if runner == nil {
		runner = procexec.Exec{Log: log}
	}

	for _, file := range req.GrammarFiles {
		emitter.RerunIfChanged(file)
	}

	cmd := t.Command(req)
	log.Infow("Running grammar generator",
		"grammars", req.GrammarFiles,
		logger.FieldDir, req.ResolvedOutDir())

	res, err := runner.Run(ctx, cmd)
	if err != nil {
		var exitErr *procexec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &GenerateError{
				Kind:   KindCmd,
				Err:    err,
				Stdout: string(exitErr.Result.Stdout),
				Stderr: string(exitErr.Result.Stderr),
			}
		}
		return nil, &GenerateError{Kind: KindRun, Err: err}
	}
	if len(res.Stderr) > 0 {
		log.Debugw("Generator wrote to stderr", "stderr", string(res.Stderr))
	}

	set, err := Gather(req.ResolvedOutDir(), t.Runtime.IncludeDirs())
	if err != nil {
		return nil, &GenerateError{Kind: KindGather, Err: err}
	}
	if set.Empty() {
		log.Warnw("Generator succeeded but produced no native files", logger.FieldDir, set.SourceDir)
	}
	log.Infow("Generated parser sources",
		"sources", len(set.SourceFiles),
		"headers", len(set.HeaderFiles),
		logger.FieldDir, set.SourceDir)
	return set, nil
}
