package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/errors"
)

// clearToolchainEnv keeps the caller's toolchain variables out of a test.
func clearToolchainEnv(t *testing.T) {
	for _, name := range []string{"ANTLR_JAR", "CXX", "AR", "CXXFLAGS", "OUT_DIR"} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadWithViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "java", cfg.Generator.Launcher)
	assert.Equal(t, "4.7.2-SNAPSHOT", cfg.Generator.Version)
	assert.Equal(t, "Cpp", cfg.Generator.Language)
	assert.Equal(t, "antlr4", cfg.Runtime.Root)
	assert.Equal(t, "dynamic", cfg.Build.LinkMode)
	assert.Equal(t, "c++14", cfg.Build.Std)
	assert.Equal(t, []string{"/usr/lib"}, cfg.Build.StaticSearchDirs)
	assert.Equal(t, "bindgen", cfg.Binding.Command)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.NoError(t, cfg.Validate())
}

func TestRuntimeSourceDirDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("antlr4-upstream", "runtime", "Cpp"), cfg.RuntimeSourceDir())

	cfg.Runtime.SourceDir = "/src/runtime"
	assert.Equal(t, "/src/runtime", cfg.RuntimeSourceDir())
}

func TestLoadFileResolvesRelativeToFile(t *testing.T) {
	clearToolchainEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[runtime]
root = "vendor/antlr4"

[build]
link_mode = "static"
out_dir = "out"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, filepath.Join(dir, "vendor", "antlr4"), cfg.Runtime.Root)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Build.OutDir)
	assert.Equal(t, filepath.Join(dir, "antlr4-upstream"), cfg.Generator.SourceDir)

	mode, err := cfg.LinkMode()
	require.NoError(t, err)
	assert.Equal(t, cppruntime.LinkStatic, mode)
}

func TestLoadFindsProjectConfigUpward(t *testing.T) {
	clearToolchainEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "[build]\nstd = \"c++17\"\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "c++17", cfg.Build.Std)
	assert.Equal(t, filepath.Join(root, FileName), cfg.File)
}

func TestLoadWithoutFileUsesWorkingDirectory(t *testing.T) {
	clearToolchainEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, filepath.Join(dir, "build"), cfg.Build.OutDir)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[build\nstd=")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestEnvironmentOverrides(t *testing.T) {
	clearToolchainEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "[build]\ncompiler = \"g++\"\n")

	t.Setenv("ANTLR_JAR", "/opt/antlr/antlr-complete.jar")
	t.Setenv("CXX", "clang++")
	t.Setenv("CXXFLAGS", `-O2 -DNAME="a b"`)
	t.Setenv("GRAMLINK_BUILD_LINK_MODE", "static")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/antlr/antlr-complete.jar", cfg.Generator.Jar)
	assert.Equal(t, "clang++", cfg.Build.Compiler)
	assert.Equal(t, "static", cfg.Build.LinkMode)

	flags, err := cfg.CXXFlagList()
	require.NoError(t, err)
	assert.Equal(t, []string{"-O2", "-DNAME=a b"}, flags)
}

func TestEnvironmentPathsResolveAgainstWorkingDirectory(t *testing.T) {
	clearToolchainEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "[generator]\nsource_dir = \"upstream\"\n")
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	t.Chdir(sub)
	// Resolve symlinked temp dirs the way Getwd reports them.
	wd, err := os.Getwd()
	require.NoError(t, err)

	t.Setenv("ANTLR_JAR", "antlr.jar")
	t.Setenv("OUT_DIR", "out")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "antlr.jar"), cfg.Generator.Jar)
	assert.Equal(t, filepath.Join(wd, "out"), cfg.Build.OutDir)
	assert.Equal(t, filepath.Join(filepath.Dir(wd), "upstream"), cfg.Generator.SourceDir,
		"file values stay relative to the file")
}

func TestEnvironmentPrefixedPathResolvesAgainstWorkingDirectory(t *testing.T) {
	clearToolchainEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "")
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	t.Chdir(sub)
	wd, err := os.Getwd()
	require.NoError(t, err)

	t.Setenv("GRAMLINK_RUNTIME_ROOT", "rt")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "rt"), cfg.Runtime.Root)
}

func TestBindEnvVarsBindsEveryToolchainVariable(t *testing.T) {
	clearToolchainEnv(t)
	v := viper.New()
	require.NotPanics(t, func() { BindEnvVars(v) })

	t.Setenv("AR", "llvm-ar")
	t.Setenv("OUT_DIR", "/tmp/out")
	assert.Equal(t, "llvm-ar", v.GetString("build.archiver"))
	assert.Equal(t, "/tmp/out", v.GetString("build.out_dir"))
}

func TestMustBindEnvPanicsWithoutKey(t *testing.T) {
	assert.Panics(t, func() { mustBindEnv(viper.New()) })
}

func TestFromEnv(t *testing.T) {
	clearToolchainEnv(t)
	t.Setenv("GRAMLINK_GENERATOR_JAR", "")
	assert.False(t, FromEnv("generator.jar"))

	t.Setenv("ANTLR_JAR", "x.jar")
	assert.True(t, FromEnv("generator.jar"))

	assert.Equal(t, []string{"GRAMLINK_BUILD_OUT_DIR", "OUT_DIR"}, EnvNames("build.out_dir"))
	assert.Equal(t, []string{"GRAMLINK_RUNTIME_ROOT"}, EnvNames("runtime.root"))
}

func TestExpandPath(t *testing.T) {
	base := t.TempDir()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"relative", "tool/antlr.jar", filepath.Join(base, "tool", "antlr.jar")},
		{"absolute", "/opt/antlr", "/opt/antlr"},
		{"tilde", "~/antlr", filepath.Join(home, "antlr")},
		{"dot", ".", base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.path, base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPathRejectsRemote(t *testing.T) {
	_, err := ExpandPath("https://example.com/antlr.jar", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported path scheme")
}

func TestDebounceInterval(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceInterval())
	cfg.Watch.DebounceMs = 0
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceInterval())
	cfg.Watch.DebounceMs = 50
	assert.Equal(t, 50*time.Millisecond, cfg.DebounceInterval())
}

func TestFingerprint(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEmpty(t, a.Fingerprint())

	b.Watch.DebounceMs = 10
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "watch settings do not affect output")

	b.Build.LinkMode = "static"
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
