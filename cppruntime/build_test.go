package cppruntime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/internal/procexec"
)

func runtimeSources(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "CMakeLists.txt"), []byte("project(antlr4)\n"), 0644))
	return src
}

func TestBuildRunsCMake(t *testing.T) {
	src := runtimeSources(t)
	root := t.TempDir()
	rec := &procexec.Recorder{}

	err := Build(context.Background(), BuildOptions{
		SourceDir: src,
		Layout:    Layout{Root: root},
		Runner:    rec,
	})
	require.NoError(t, err)

	calls := rec.CallsTo("cmake")
	require.Len(t, calls, 2)
	configure := calls[0].Args
	assert.Contains(t, configure, "-DCMAKE_BUILD_TYPE=Release")
	assert.Contains(t, configure, "-DBUILD_BINARY=Off")
	assert.Contains(t, configure, "-DCMAKE_CXX_FLAGS=-fPIC")
	assert.Contains(t, configure, "-DCMAKE_INSTALL_PREFIX="+root)
	assert.Equal(t, []string{"--build", filepath.Join(root, "build"), "--target", "install", "--config", "Release"}, calls[1].Args)
	assert.DirExists(t, filepath.Join(root, "build"))
}

func TestBuildDebugType(t *testing.T) {
	rec := &procexec.Recorder{}
	err := Build(context.Background(), BuildOptions{
		SourceDir: runtimeSources(t),
		Layout:    Layout{Root: t.TempDir()},
		Debug:     true,
		CMake:     "/usr/local/bin/cmake",
		Runner:    rec,
	})
	require.NoError(t, err)
	calls := rec.CallsTo("/usr/local/bin/cmake")
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Args, "-DCMAKE_BUILD_TYPE=Debug")
}

func TestBuildFailureCarriesOutput(t *testing.T) {
	rec := &procexec.Recorder{Handler: func(cmd procexec.Command) (procexec.Result, error) {
		return procexec.Fail(cmd, 1, "-- Configuring incomplete", "CMake Error: no compiler")
	}}

	err := Build(context.Background(), BuildOptions{
		SourceDir: runtimeSources(t),
		Layout:    Layout{Root: t.TempDir()},
		Runner:    rec,
	})
	require.Error(t, err)
	assert.Len(t, rec.Calls(), 1, "build must stop at the failing step")

	details := errors.FlattenDetails(err)
	assert.Contains(t, details, "Configuring incomplete")
	assert.Contains(t, details, "CMake Error: no compiler")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestBuildMissingSources(t *testing.T) {
	rec := &procexec.Recorder{}
	err := Build(context.Background(), BuildOptions{
		SourceDir: filepath.Join(t.TempDir(), "nope"),
		Layout:    Layout{Root: t.TempDir()},
		Runner:    rec,
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, rec.Calls())
}
