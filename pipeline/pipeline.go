// Package pipeline drives a whole project build: for every library in the
// manifest it generates parser sources, assembles them with the shims into a
// static library, declares the result to the enclosing build and records a
// stamp so the next run can skip unchanged libraries.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/teranos/gramlink/acquire"
	"github.com/teranos/gramlink/config"
	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/generator"
	"github.com/teranos/gramlink/internal/procexec"
	"github.com/teranos/gramlink/logger"
	"github.com/teranos/gramlink/manifest"
	"github.com/teranos/gramlink/native"
	"github.com/teranos/gramlink/stamp"
	"go.uber.org/zap"
)

// Stage names reported through ProgressEmitter
const (
	StageAcquire  = "acquire"
	StageGenerate = "generate"
	StageAssemble = "assemble"
	StageStamp    = "stamp"
)

// GeneratorFactory returns a generator that declares its triggers on emitter.
type GeneratorFactory func(emitter directive.Emitter) generator.Generator

// Options configures one pipeline run
type Options struct {
	Manifest *manifest.Manifest
	Config   *config.Config

	// LinkMode overrides both the manifest and the configuration when set.
	LinkMode cppruntime.LinkMode
	// Force rebuilds libraries whose stamps still match.
	Force bool
	// Only restricts the run to the named libraries.
	Only []string

	// Acquirer, when set, resolves the generator jar and the runtime
	// before anything is built.
	Acquirer *acquire.Acquirer
	// NewGenerator defaults to the external generator tool.
	NewGenerator GeneratorFactory
	Runner       procexec.Runner
	Binder       native.Binder

	// Emitter receives the directives of every library, built or skipped.
	Emitter  directive.Emitter
	Progress ProgressEmitter
	Log      *zap.SugaredLogger
}

// LibraryResult is the outcome for one library
type LibraryResult struct {
	Name    string `json:"name" yaml:"name"`
	Skipped bool   `json:"skipped" yaml:"skipped"`
	// Reason says why the library was rebuilt, empty when forced.
	Reason     string                 `json:"reason,omitempty" yaml:"reason,omitempty"`
	Artifacts  *generator.ArtifactSet `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Library    *native.Library        `json:"library,omitempty" yaml:"library,omitempty"`
	Directives []directive.Directive  `json:"directives" yaml:"directives"`
}

// Report summarizes a run
type Report struct {
	RunID     string              `json:"run_id" yaml:"run_id"`
	LinkMode  cppruntime.LinkMode `json:"link_mode" yaml:"link_mode"`
	Libraries []LibraryResult     `json:"libraries" yaml:"libraries"`
	Duration  time.Duration       `json:"duration" yaml:"duration"`
}

// Triggers returns every rerun-if-changed path across the run, deduplicated.
func (r *Report) Triggers() []string {
	rec := &directive.Recorder{}
	for _, lib := range r.Libraries {
		directive.Replay(rec, lib.Directives)
	}
	return rec.Triggers()
}

// Built counts the libraries that were rebuilt
func (r *Report) Built() int {
	n := 0
	for _, lib := range r.Libraries {
		if !lib.Skipped {
			n++
		}
	}
	return n
}

// Run builds every selected library in manifest order. The first failure
// stops the run; the report then holds the libraries finished before it.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Manifest == nil || opts.Config == nil {
		return nil, errors.New("pipeline requires a manifest and a configuration")
	}
	start := time.Now()
	runID := uuid.New().String()
	log := logger.OrNop(opts.Log).With(logger.FieldRunID, runID)
	progress := opts.Progress
	if progress == nil {
		progress = NopEmitter
	}
	if s, ok := progress.(runIDSetter); ok {
		s.SetRunID(runID)
	}

	mode, err := resolveLinkMode(opts)
	if err != nil {
		return nil, err
	}
	report := &Report{RunID: runID, LinkMode: mode}

	r := &run{opts: opts, log: log, progress: progress, mode: mode, runtime: opts.Config.RuntimeLayout()}
	if err := r.acquire(ctx); err != nil {
		progress.EmitError(StageAcquire, err)
		return report, err
	}

	libs, err := selectLibraries(opts.Manifest, opts.Only)
	if err != nil {
		return report, err
	}
	log.Infow("Pipeline started", logger.FieldCount, len(libs), logger.FieldLinkMode, string(mode))

	for _, lib := range libs {
		result, err := r.library(ctx, lib)
		if err != nil {
			return report, err
		}
		report.Libraries = append(report.Libraries, result)
		progress.EmitLibrary(result)
	}

	report.Duration = time.Since(start)
	progress.EmitComplete(map[string]interface{}{
		"run_id":    runID,
		"built":     report.Built(),
		"skipped":   len(report.Libraries) - report.Built(),
		"link_mode": string(mode),
		"duration":  report.Duration.Round(time.Millisecond).String(),
	})
	log.Infow("Pipeline finished", logger.FieldDuration, report.Duration.Milliseconds())
	return report, nil
}

// resolveLinkMode applies the override, then the manifest, then the configuration.
func resolveLinkMode(opts Options) (cppruntime.LinkMode, error) {
	if opts.LinkMode != "" {
		return cppruntime.ParseLinkMode(string(opts.LinkMode))
	}
	if opts.Manifest.LinkMode != "" {
		return opts.Manifest.LinkMode, nil
	}
	return opts.Config.LinkMode()
}

func selectLibraries(m *manifest.Manifest, only []string) ([]manifest.Library, error) {
	if len(only) == 0 {
		return m.Libraries, nil
	}
	libs := make([]manifest.Library, 0, len(only))
	for _, name := range only {
		lib, ok := m.Lookup(name)
		if !ok {
			return nil, errors.NewNotFoundError("library %q is not declared in %s", name, m.Path)
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

type run struct {
	opts     Options
	log      *zap.SugaredLogger
	progress ProgressEmitter
	mode     cppruntime.LinkMode
	runtime  cppruntime.Layout
	jar      string
}

func (r *run) acquire(ctx context.Context) error {
	if r.opts.Acquirer == nil {
		if r.opts.NewGenerator != nil {
			return nil
		}
		// Without acquisition the jar is still resolved; it is never built.
		jar, err := acquire.ResolveJar(r.opts.Config)
		if err != nil {
			return err
		}
		r.jar = jar.Path
		return nil
	}
	r.progress.EmitStage(StageAcquire, "resolving generator and runtime")
	if r.opts.NewGenerator == nil {
		jar, err := r.opts.Acquirer.EnsureJar(ctx)
		if err != nil {
			return err
		}
		r.jar = jar.Path
		r.progress.EmitInfo("generator: " + jar.Path + " (" + string(jar.Source) + ")")
	}
	layout, source, err := r.opts.Acquirer.EnsureRuntime(ctx)
	if err != nil {
		return err
	}
	r.runtime = layout
	r.progress.EmitInfo("runtime: " + layout.Root + " (" + string(source) + ")")
	return nil
}

func (r *run) newGenerator(emitter directive.Emitter) generator.Generator {
	if r.opts.NewGenerator != nil {
		return r.opts.NewGenerator(emitter)
	}
	cfg := r.opts.Config
	return &generator.Tool{
		Launcher: cfg.Generator.Launcher,
		Jar:      r.jar,
		Language: cfg.Generator.Language,
		Runtime:  r.runtime,
		Runner:   r.opts.Runner,
		Emitter:  emitter,
		Log:      r.log.Named("generator"),
	}
}

// fingerprint covers the configuration and the effective link mode.
func (r *run) fingerprint() string {
	return r.opts.Config.Fingerprint() + ":" + string(r.mode)
}

func (r *run) library(ctx context.Context, lib manifest.Library) (LibraryResult, error) {
	cfg := r.opts.Config
	log := r.log.With(logger.FieldLibrary, lib.Name)
	result := LibraryResult{Name: lib.Name}
	stampPath := stamp.Path(cfg.Build.OutDir, lib.Name)

	if !r.opts.Force {
		reason, err := stamp.Check(stampPath, r.fingerprint(), lib.Inputs())
		if err != nil {
			log.Warnw("Ignoring unreadable stamp", logger.FieldFile, stampPath, logger.FieldError, err)
			reason = "stamp unreadable"
		}
		if reason == "" {
			return r.replay(stampPath, result)
		}
		result.Reason = reason
	}

	// Any failure below leaves no usable stamp behind.
	if err := stamp.Remove(stampPath); err != nil {
		return result, err
	}

	rec := &directive.Recorder{}
	emitter := directive.Tee(rec, directive.OrDiscard(r.opts.Emitter))

	r.progress.EmitStage(StageGenerate, lib.Name)
	if err := os.MkdirAll(lib.OutDir, 0755); err != nil {
		return result, errors.Wrapf(err, "failed to create %s", lib.OutDir)
	}
	set, err := r.newGenerator(emitter).Generate(ctx, lib.Request())
	if err != nil {
		r.progress.EmitError(StageGenerate, err)
		return result, errors.Wrapf(err, "library %s", lib.Name)
	}
	result.Artifacts = set

	r.progress.EmitStage(StageAssemble, lib.Name)
	cxxflags, err := cfg.CXXFlagList()
	if err != nil {
		return result, err
	}
	asm := native.NewAssembler(set, native.BuildConfig{
		LinkMode:         r.mode,
		Compiler:         cfg.Build.Compiler,
		Archiver:         cfg.Build.Archiver,
		Std:              cfg.Build.Std,
		CXXFlags:         cxxflags,
		OutDir:           cfg.Build.OutDir,
		Runtime:          r.runtime,
		BindingExtension: cfg.Binding.Extension,
		Runner:           r.opts.Runner,
		Binder:           r.binder(),
		Emitter:          emitter,
		Log:              r.log.Named("native"),
	})
	for _, src := range lib.ShimSources {
		asm.AddShimSource(src)
	}
	for _, hdr := range lib.ShimHeaders {
		asm.AddShimHeader(hdr)
	}
	built, err := asm.Build(ctx, lib.Name)
	if err != nil {
		r.progress.EmitError(StageAssemble, err)
		return result, err
	}
	result.Library = built
	result.Directives = rec.Directives()

	if err := r.writeStamp(stampPath, lib, rec, built); err != nil {
		// A missing stamp only costs a rebuild next time
		log.Warnw("Failed to write stamp", logger.FieldFile, stampPath, logger.FieldError, err)
		r.progress.EmitError(StageStamp, err)
	}
	return result, nil
}

func (r *run) binder() native.Binder {
	if r.opts.Binder != nil {
		return r.opts.Binder
	}
	return &native.CommandBinder{
		Command: r.opts.Config.Binding.Command,
		Args:    r.opts.Config.Binding.Args,
		Runner:  r.opts.Runner,
		Log:     r.log.Named("binding"),
	}
}

func (r *run) writeStamp(path string, lib manifest.Library, rec *directive.Recorder, built *native.Library) error {
	artifacts := []string{built.Archive}
	if built.Binding != "" {
		artifacts = append(artifacts, built.Binding)
	}
	// The manifest inputs are hashed even if nothing declared them.
	triggers := append(rec.Triggers(), lib.Inputs()...)
	s, err := stamp.Compute(lib.Name, r.fingerprint(), dedupe(triggers), artifacts)
	if err != nil {
		return err
	}
	for _, d := range rec.Directives() {
		s.Directives = append(s.Directives, d.String())
	}
	return s.Write(path)
}

// replay re-declares a skipped library's directives from its stamp.
func (r *run) replay(path string, result LibraryResult) (LibraryResult, error) {
	s, err := stamp.Read(path)
	if err != nil {
		return result, err
	}
	for _, line := range s.Directives {
		d, err := directive.Parse(line)
		if err != nil {
			return result, errors.Wrapf(err, "stamp %s", path)
		}
		result.Directives = append(result.Directives, d)
	}
	directive.Replay(directive.OrDiscard(r.opts.Emitter), result.Directives)
	result.Skipped = true
	r.log.Infow("Library up to date", logger.FieldLibrary, result.Name)
	return result, nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
