// Package native compiles generated parser sources and hand-written shims
// into a static library, declares how to link it together with the C++
// runtime, and optionally derives a foreign-function binding from the
// shim headers.
//
// Every failure after generation is terminal and reported as *BuildAbort.
package native

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/generator"
	"github.com/teranos/gramlink/internal/procexec"
	"github.com/teranos/gramlink/logger"
	"go.uber.org/zap"
)

// DefaultStd is the language standard for compilation and binding generation.
const DefaultStd = "c++14"

// attributeWarningFlag silences attribute warnings from generated code.
const attributeWarningFlag = "-Wno-attributes"

// BuildConfig fixes everything about how libraries are assembled. LinkMode
// applies to the whole artifact.
type BuildConfig struct {
	LinkMode cppruntime.LinkMode
	Compiler string
	Archiver string
	Std      string
	// CXXFlags are appended to every compile.
	CXXFlags []string
	// OutDir is the build-private directory for objects, archives and bindings.
	OutDir  string
	Runtime cppruntime.Layout
	// BindingExtension names the binding file: <name>.<ext>.
	BindingExtension string

	Runner  procexec.Runner
	Binder  Binder
	Emitter directive.Emitter
	Log     *zap.SugaredLogger
}

// Library describes an assembled static library.
type Library struct {
	Name    string              `json:"name" yaml:"name"`
	Archive string              `json:"archive" yaml:"archive"`
	Objects []string            `json:"objects" yaml:"objects"`
	Link    cppruntime.LinkSpec `json:"link" yaml:"link"`
	// Binding is empty when no shim headers were registered.
	Binding string `json:"binding,omitempty" yaml:"binding,omitempty"`
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.+-]*$`)

// ValidLibraryName reports whether name can be used as lib<name>.a.
func ValidLibraryName(name string) bool {
	return validName.MatchString(name)
}

// Assembler builds one library from one ArtifactSet. It is single-use.
type Assembler struct {
	set     *generator.ArtifactSet
	cfg     BuildConfig
	emitter directive.Emitter
	log     *zap.SugaredLogger
	built   bool
}

// NewAssembler takes ownership of set; shim registration mutates it.
func NewAssembler(set *generator.ArtifactSet, cfg BuildConfig) *Assembler {
	if cfg.Compiler == "" {
		cfg.Compiler = "c++"
	}
	if cfg.Archiver == "" {
		cfg.Archiver = "ar"
	}
	if cfg.Std == "" {
		cfg.Std = DefaultStd
	}
	if cfg.LinkMode == "" {
		cfg.LinkMode = cppruntime.LinkDynamic
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if cfg.BindingExtension == "" {
		cfg.BindingExtension = "rs"
	}
	log := logger.OrNop(cfg.Log)
	if cfg.Runner == nil {
		cfg.Runner = procexec.Exec{Log: log}
	}
	if cfg.Binder == nil {
		cfg.Binder = &CommandBinder{Runner: cfg.Runner, Log: log}
	}
	return &Assembler{
		set:     set,
		cfg:     cfg,
		emitter: directive.OrDiscard(cfg.Emitter),
		log:     log,
	}
}

// Set returns the artifact set being assembled.
func (a *Assembler) Set() *generator.ArtifactSet {
	return a.set
}

// AddShimSource registers an adapter source for compilation and declares
// it as a rebuild trigger.
func (a *Assembler) AddShimSource(path string) *Assembler {
	a.emitter.RerunIfChanged(path)
	a.set.SourceFiles = append(a.set.SourceFiles, path)
	return a
}

// AddShimHeader registers an adapter header for binding generation and
// declares it as a rebuild trigger. It does not change the include path.
func (a *Assembler) AddShimHeader(path string) *Assembler {
	a.emitter.RerunIfChanged(path)
	a.set.ShimHeaders = append(a.set.ShimHeaders, path)
	return a
}

// ArchivePath returns where the static archive for name is written.
func (a *Assembler) ArchivePath(name string) string {
	return filepath.Join(a.cfg.OutDir, "lib"+name+".a")
}

// BindingPath returns where the binding for name is written.
func (a *Assembler) BindingPath(name string) string {
	return filepath.Join(a.cfg.OutDir, name+"."+a.cfg.BindingExtension)
}

// Build compiles every source into lib<name>.a, declares the library and
// the runtime for linking, and generates bindings when shim headers were
// registered. Any failure aborts the whole build.
func (a *Assembler) Build(ctx context.Context, name string) (*Library, error) {
	if a.built {
		return nil, a.abort(name, StagePrepare, errors.Wrap(errors.ErrConsumed, "assembler already built"), "")
	}
	a.built = true

	if !ValidLibraryName(name) {
		return nil, a.abort(name, StagePrepare, errors.Newf("invalid library name %q", name), "")
	}
	objDir := filepath.Join(a.cfg.OutDir, "obj", name)
	if err := os.MkdirAll(objDir, 0755); err != nil {
		return nil, a.abort(name, StagePrepare, errors.Wrapf(err, "failed to create %s", objDir), "")
	}

	log := a.log.With(logger.FieldLibrary, name, logger.FieldLinkMode, string(a.cfg.LinkMode))
	flags := a.compileFlags(ctx, objDir)

	lib := &Library{Name: name, Archive: a.ArchivePath(name)}
	log.Infow("Compiling library", logger.FieldCount, len(a.set.SourceFiles))
	for i, src := range a.set.SourceFiles {
		obj := filepath.Join(objDir, objectName(i, src))
		args := append(append([]string{}, flags...), "-c", src, "-o", obj)
		res, err := a.cfg.Runner.Run(ctx, procexec.Command{Name: a.cfg.Compiler, Args: args})
		if err != nil {
			return nil, a.abort(name, StageCompile, errors.Wrapf(err, "compiling %s", src), res.Combined())
		}
		lib.Objects = append(lib.Objects, obj)
	}

	if err := os.Remove(lib.Archive); err != nil && !os.IsNotExist(err) {
		return nil, a.abort(name, StageArchive, errors.Wrapf(err, "failed to remove stale %s", lib.Archive), "")
	}
	arArgs := append([]string{"crs", lib.Archive}, lib.Objects...)
	if res, err := a.cfg.Runner.Run(ctx, procexec.Command{Name: a.cfg.Archiver, Args: arArgs}); err != nil {
		return nil, a.abort(name, StageArchive, errors.Wrapf(err, "archiving %s", lib.Archive), res.Combined())
	}

	a.emitter.LinkSearch(directive.SearchNative, a.cfg.OutDir)
	a.emitter.LinkLib(directive.LibStatic, name)
	lib.Link = a.cfg.Runtime.Link(a.cfg.LinkMode)
	lib.Link.Emit(a.emitter)

	if len(a.set.ShimHeaders) > 0 {
		req := BindingRequest{
			Name:    name,
			Headers: append([]string(nil), a.set.ShimHeaders...),
			Std:     a.cfg.Std,
			Output:  a.BindingPath(name),
		}
		if err := a.cfg.Binder.GenerateBinding(ctx, req); err != nil {
			return nil, a.abort(name, StageBinding, err, toolOutput(err))
		}
		lib.Binding = req.Output
	}

	log.Infow("Library assembled", logger.FieldArtifact, lib.Archive, "binding", lib.Binding)
	return lib, nil
}

// compileFlags assembles the flags shared by every compile. The attribute
// warning flag is only used when the compiler accepts it.
func (a *Assembler) compileFlags(ctx context.Context, objDir string) []string {
	flags := []string{"-std=" + a.cfg.Std, "-fPIC"}
	if a.flagSupported(ctx, objDir, attributeWarningFlag) {
		flags = append(flags, attributeWarningFlag)
	}
	for _, dir := range a.set.IncludeDirs() {
		flags = append(flags, "-I"+dir)
	}
	return append(flags, a.cfg.CXXFlags...)
}

func (a *Assembler) flagSupported(ctx context.Context, objDir, flag string) bool {
	probe := filepath.Join(objDir, "flag_check.cpp")
	if err := os.WriteFile(probe, []byte("int main(void) { return 0; }\n"), 0644); err != nil {
		return false
	}
	defer os.Remove(probe)
	out := filepath.Join(objDir, "flag_check.o")
	defer os.Remove(out)

	_, err := a.cfg.Runner.Run(ctx, procexec.Command{
		Name: a.cfg.Compiler,
		Args: []string{flag, "-c", probe, "-o", out},
	})
	if err != nil {
		a.log.Debugw("Compiler flag not supported", "flag", flag, logger.FieldError, err)
		return false
	}
	return true
}

func (a *Assembler) abort(name string, stage Stage, err error, output string) error {
	a.log.Errorw("Native build aborted",
		logger.FieldLibrary, name,
		logger.FieldStage, string(stage),
		logger.FieldError, err)
	return &BuildAbort{Library: name, Stage: stage, Err: err, Output: output}
}

// objectName keeps objects from same-named sources in different
// directories apart.
func objectName(index int, src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return fmt.Sprintf("%03d-%s.o", index, base)
}

func toolOutput(err error) string {
	var exitErr *procexec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Result.Combined()
	}
	return ""
}
