package native

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/gramlink/internal/procexec"
)

func TestWriteWrapperIncludesEveryHeader(t *testing.T) {
	dir := t.TempDir()
	req := BindingRequest{
		Name:    "json",
		Headers: []string{"/src/a.h", "/src/b.h"},
		Output:  filepath.Join(dir, "json.rs"),
	}

	path, err := WriteWrapper(req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "json_bindings.hpp"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#include \"/src/a.h\"\n#include \"/src/b.h\"\n")
}

func TestExpandArgs(t *testing.T) {
	req := BindingRequest{Name: "json", Std: "c++17", Output: "out/json.rs"}
	got := ExpandArgs(DefaultBindingArgs, "w.hpp", req)
	assert.Equal(t, []string{"w.hpp", "--output", "out/json.rs", "--", "-std=c++17", "-xc++"}, got)
}

func TestCommandBinderRunsOnce(t *testing.T) {
	dir := t.TempDir()
	req := BindingRequest{
		Name:    "json",
		Headers: []string{"a.h", "b.h"},
		Std:     "c++14",
		Output:  filepath.Join(dir, "json.rs"),
	}
	rec := &procexec.Recorder{Handler: func(cmd procexec.Command) (procexec.Result, error) {
		return procexec.Result{}, os.WriteFile(req.Output, []byte("// bindings\n"), 0644)
	}}

	b := &CommandBinder{Runner: rec}
	require.NoError(t, b.GenerateBinding(context.Background(), req))

	calls := rec.CallsTo("bindgen")
	require.Len(t, calls, 1)
	assert.Equal(t, WrapperPath(req), calls[0].Args[0])
	assert.Contains(t, calls[0].Args, "-std=c++14")
}

func TestCommandBinderCustomCommand(t *testing.T) {
	dir := t.TempDir()
	req := BindingRequest{Name: "json", Headers: []string{"a.h"}, Output: filepath.Join(dir, "json.go")}
	rec := &procexec.Recorder{Handler: func(cmd procexec.Command) (procexec.Result, error) {
		return procexec.Result{}, os.WriteFile(req.Output, nil, 0644)
	}}

	b := &CommandBinder{Command: "c-for-go", Args: []string{"-out", "{output}", "{name}"}, Runner: rec}
	require.NoError(t, b.GenerateBinding(context.Background(), req))

	calls := rec.CallsTo("c-for-go")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"-out", req.Output, "json"}, calls[0].Args)
}

func TestCommandBinderMissingOutput(t *testing.T) {
	req := BindingRequest{Name: "json", Headers: []string{"a.h"}, Output: filepath.Join(t.TempDir(), "json.rs")}
	b := &CommandBinder{Runner: &procexec.Recorder{}}

	err := b.GenerateBinding(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not produce")
}

func TestCommandBinderToolFailure(t *testing.T) {
	req := BindingRequest{Name: "json", Headers: []string{"a.h"}, Output: filepath.Join(t.TempDir(), "json.rs")}
	rec := &procexec.Recorder{Handler: func(cmd procexec.Command) (procexec.Result, error) {
		return procexec.Fail(cmd, 1, "", "fatal error: 'a.h' file not found")
	}}

	err := (&CommandBinder{Runner: rec}).GenerateBinding(context.Background(), req)
	var exitErr *procexec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, toolOutput(err), "file not found")
}
