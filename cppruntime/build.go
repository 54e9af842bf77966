package cppruntime

import (
	"context"
	"os"
	"path/filepath"

	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/internal/procexec"
	"github.com/teranos/gramlink/logger"
	"go.uber.org/zap"
)

// BuildOptions configures a from-source build of the runtime.
type BuildOptions struct {
	// SourceDir holds the runtime's CMakeLists.txt.
	SourceDir string
	// Layout.Root receives the install.
	Layout Layout
	// Debug selects CMAKE_BUILD_TYPE=Debug instead of Release.
	Debug bool
	// CMake is the cmake executable; defaults to "cmake".
	CMake string

	Runner procexec.Runner
	Log    *zap.SugaredLogger
}

// BuildType returns the CMake build type for opts.
func (o BuildOptions) BuildType() string {
	if o.Debug {
		return "Debug"
	}
	return "Release"
}

// Build configures, compiles and installs the runtime with CMake. Any
// failure is fatal for the build that needed the runtime; the captured
// output streams travel in the error detail.
func Build(ctx context.Context, opts BuildOptions) error {
	log := logger.OrNop(opts.Log)
	runner := opts.Runner
	if runner == nil {
		runner = procexec.Exec{Log: log}
	}
	cmake := opts.CMake
	if cmake == "" {
		cmake = "cmake"
	}

	if _, err := os.Stat(filepath.Join(opts.SourceDir, "CMakeLists.txt")); err != nil {
		return errors.WithHint(
			errors.Wrap(errors.NewNotFoundError("runtime sources missing at %s", opts.SourceDir), "runtime build"),
			"set runtime.root to an installed runtime or runtime.source_dir to its CMake project")
	}

	root, err := filepath.Abs(opts.Layout.Root)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve runtime root %s", opts.Layout.Root)
	}
	buildDir := filepath.Join(root, "build")
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create runtime build directory %s", buildDir)
	}

	steps := []procexec.Command{
		{
			Name: cmake,
			Args: []string{
				"-S", opts.SourceDir,
				"-B", buildDir,
				"-DCMAKE_BUILD_TYPE=" + opts.BuildType(),
				"-DBUILD_BINARY=Off",
				"-DCMAKE_CXX_FLAGS=-fPIC",
				"-DCMAKE_INSTALL_PREFIX=" + root,
			},
		},
		{
			Name: cmake,
			Args: []string{"--build", buildDir, "--target", "install", "--config", opts.BuildType()},
		},
	}

	log.Infow("Building runtime from source", "source", opts.SourceDir, "root", root, "build_type", opts.BuildType())
	for _, step := range steps {
		res, err := runner.Run(ctx, step)
		if err != nil {
			return errors.WithHint(
				errors.WithDetail(
					errors.Wrapf(err, "failed to build runtime: %s", step.String()),
					"stdout:\n"+string(res.Stdout)+"\nstderr:\n"+string(res.Stderr)),
				"install the runtime separately and point runtime.root at it")
		}
	}
	log.Infow("Runtime installed", "root", root)
	return nil
}
