// Package acquire locates the parser generator artifact and the C++ runtime,
// building either from source when no usable copy exists.
package acquire

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/teranos/gramlink/config"
	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/internal/procexec"
	"github.com/teranos/gramlink/logger"
	"go.uber.org/zap"
)

// JarEnvVar names the environment variable that bypasses generator acquisition.
const JarEnvVar = "ANTLR_JAR"

// MavenArgs builds only the tool module and what it depends on.
var MavenArgs = []string{"-B", "-pl", ":antlr4", "-am", "package"}

// Source records how an artifact was found.
type Source string

const (
	SourceConfigured Source = "configured"
	SourceExisting   Source = "existing"
	SourceBuilt      Source = "built"
)

// Jar is a resolved generator artifact.
type Jar struct {
	Path   string `json:"path" yaml:"path"`
	Source Source `json:"source" yaml:"source"`
}

// ConventionalJarPath returns where a source build places the complete jar.
func ConventionalJarPath(sourceDir, version string) string {
	return filepath.Join(sourceDir, "tool", "target", "antlr4-"+version+"-complete.jar")
}

// ResolveJar returns the configured jar, or the conventional path inside the
// generator checkout. It does not check that the file exists.
func ResolveJar(cfg *config.Config) (Jar, error) {
	if cfg.Generator.Jar != "" {
		return Jar{Path: cfg.Generator.Jar, Source: SourceConfigured}, nil
	}
	v, err := semver.NewVersion(cfg.Generator.Version)
	if err != nil {
		return Jar{}, errors.NewInvalidConfigError("invalid generator.version %s: %v", cfg.Generator.Version, err)
	}
	return Jar{Path: ConventionalJarPath(cfg.Generator.SourceDir, v.Original())}, nil
}

// Acquirer builds missing artifacts with external tools.
type Acquirer struct {
	Config *config.Config
	// Maven and CMake default to "mvn" and "cmake".
	Maven string
	CMake string

	Runner procexec.Runner
	Log    *zap.SugaredLogger
}

func (a *Acquirer) runner() procexec.Runner {
	if a.Runner != nil {
		return a.Runner
	}
	return procexec.Exec{Log: a.Log}
}

// EnsureJar resolves the generator jar and builds it with Maven when it is
// neither configured nor already built. A configured jar is trusted as is.
func (a *Acquirer) EnsureJar(ctx context.Context) (Jar, error) {
	log := logger.OrNop(a.Log)
	jar, err := ResolveJar(a.Config)
	if err != nil {
		return Jar{}, err
	}
	if jar.Source == SourceConfigured {
		log.Debugw("Using configured generator", logger.FieldArtifact, jar.Path)
		return jar, nil
	}
	if info, err := os.Stat(jar.Path); err == nil && !info.IsDir() {
		jar.Source = SourceExisting
		log.Debugw("Using previously built generator", logger.FieldArtifact, jar.Path)
		return jar, nil
	}

	sourceDir := a.Config.Generator.SourceDir
	if _, err := os.Stat(filepath.Join(sourceDir, "pom.xml")); err != nil {
		return Jar{}, errors.WithHint(
			errors.NewNotFoundError("generator sources missing at %s", sourceDir),
			"set "+JarEnvVar+" to a complete generator jar")
	}

	maven := a.Maven
	if maven == "" {
		maven = "mvn"
	}
	cmd := procexec.Command{Name: maven, Args: MavenArgs, Dir: sourceDir}
	log.Infow("Building generator from source", logger.FieldDir, sourceDir, logger.FieldCommand, cmd.String())
	res, err := a.runner().Run(ctx, cmd)
	if err != nil {
		return Jar{}, errors.WithHint(
			errors.WithDetail(
				errors.Wrap(err, "failed to build generator"),
				"stdout:\n"+string(res.Stdout)+"\nstderr:\n"+string(res.Stderr)),
			"set "+JarEnvVar+" to skip building the generator")
	}

	if _, err := os.Stat(jar.Path); err != nil {
		return Jar{}, errors.WithHint(
			errors.NewNotFoundError("generator build finished but %s is missing", jar.Path),
			"check generator.version against the checkout's version")
	}
	jar.Source = SourceBuilt
	log.Infow("Generator built", logger.FieldArtifact, jar.Path)
	return jar, nil
}

// EnsureRuntime returns the runtime layout, building and installing the
// runtime with CMake when runtime.root holds no install.
func (a *Acquirer) EnsureRuntime(ctx context.Context) (cppruntime.Layout, Source, error) {
	layout := a.Config.RuntimeLayout()
	if layout.Installed() {
		return layout, SourceExisting, nil
	}

	err := cppruntime.Build(ctx, cppruntime.BuildOptions{
		SourceDir: a.Config.RuntimeSourceDir(),
		Layout:    layout,
		Debug:     a.Config.Runtime.Debug,
		CMake:     a.CMake,
		Runner:    a.runner(),
		Log:       a.Log,
	})
	if err != nil {
		return cppruntime.Layout{}, "", err
	}
	return layout, SourceBuilt, nil
}
