package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/gramlink/config"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/internal/procexec"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Generator.SourceDir = filepath.Join(t.TempDir(), "antlr4-upstream")
	cfg.Runtime.Root = filepath.Join(t.TempDir(), "antlr4")
	return cfg
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

func TestResolveJar(t *testing.T) {
	cfg := testConfig(t)

	jar, err := ResolveJar(cfg)
	require.NoError(t, err)
	assert.Equal(t,
		filepath.Join(cfg.Generator.SourceDir, "tool", "target", "antlr4-4.7.2-SNAPSHOT-complete.jar"),
		jar.Path)
	assert.Empty(t, jar.Source)

	cfg.Generator.Jar = "/opt/antlr.jar"
	jar, err = ResolveJar(cfg)
	require.NoError(t, err)
	assert.Equal(t, Jar{Path: "/opt/antlr.jar", Source: SourceConfigured}, jar)
}

func TestResolveJarBadVersion(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generator.Version = "snapshot"
	_, err := ResolveJar(cfg)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestEnsureJarConfiguredSkipsBuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generator.Jar = "/does/not/matter.jar"
	rec := &procexec.Recorder{}

	jar, err := (&Acquirer{Config: cfg, Runner: rec}).EnsureJar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceConfigured, jar.Source)
	assert.Empty(t, rec.Calls())
}

func TestEnsureJarExisting(t *testing.T) {
	cfg := testConfig(t)
	want := ConventionalJarPath(cfg.Generator.SourceDir, cfg.Generator.Version)
	touch(t, want)
	rec := &procexec.Recorder{}

	jar, err := (&Acquirer{Config: cfg, Runner: rec}).EnsureJar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Jar{Path: want, Source: SourceExisting}, jar)
	assert.Empty(t, rec.Calls())
}

func TestEnsureJarBuildsWithMaven(t *testing.T) {
	cfg := testConfig(t)
	touch(t, filepath.Join(cfg.Generator.SourceDir, "pom.xml"))
	want := ConventionalJarPath(cfg.Generator.SourceDir, cfg.Generator.Version)

	rec := &procexec.Recorder{Handler: func(cmd procexec.Command) (procexec.Result, error) {
		touch(t, want)
		return procexec.Result{}, nil
	}}

	jar, err := (&Acquirer{Config: cfg, Runner: rec}).EnsureJar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceBuilt, jar.Source)

	calls := rec.CallsTo("mvn")
	require.Len(t, calls, 1)
	assert.Equal(t, MavenArgs, calls[0].Args)
	assert.Equal(t, cfg.Generator.SourceDir, calls[0].Dir)
}

func TestEnsureJarMavenFailure(t *testing.T) {
	cfg := testConfig(t)
	touch(t, filepath.Join(cfg.Generator.SourceDir, "pom.xml"))
	rec := &procexec.Recorder{Handler: func(cmd procexec.Command) (procexec.Result, error) {
		return procexec.Fail(cmd, 1, "[INFO] Scanning", "[ERROR] BUILD FAILURE")
	}}

	_, err := (&Acquirer{Config: cfg, Runner: rec}).EnsureJar(context.Background())
	require.Error(t, err)
	assert.Contains(t, errors.FlattenDetails(err), "BUILD FAILURE")
	assert.Contains(t, errors.FlattenDetails(err), "[INFO] Scanning")
	assert.Contains(t, errors.FlattenHints(err), JarEnvVar)
}

func TestEnsureJarMissingSources(t *testing.T) {
	cfg := testConfig(t)
	rec := &procexec.Recorder{}

	_, err := (&Acquirer{Config: cfg, Runner: rec}).EnsureJar(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, rec.Calls())
}

func TestEnsureJarBuildWithoutOutput(t *testing.T) {
	cfg := testConfig(t)
	touch(t, filepath.Join(cfg.Generator.SourceDir, "pom.xml"))

	_, err := (&Acquirer{Config: cfg, Runner: &procexec.Recorder{}}).EnsureJar(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestEnsureRuntimeInstalled(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Runtime.Root, "include", "antlr4-runtime"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Runtime.Root, "lib"), 0755))
	rec := &procexec.Recorder{}

	layout, source, err := (&Acquirer{Config: cfg, Runner: rec}).EnsureRuntime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceExisting, source)
	assert.Equal(t, cfg.Runtime.Root, layout.Root)
	assert.Empty(t, rec.Calls())
}

func TestEnsureRuntimeBuildsWithCMake(t *testing.T) {
	cfg := testConfig(t)
	touch(t, filepath.Join(cfg.RuntimeSourceDir(), "CMakeLists.txt"))
	rec := &procexec.Recorder{}

	_, source, err := (&Acquirer{Config: cfg, Runner: rec}).EnsureRuntime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceBuilt, source)
	assert.Len(t, rec.CallsTo("cmake"), 2)
}
