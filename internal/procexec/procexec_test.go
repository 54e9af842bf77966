package procexec

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/gramlink/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("Skipping test - sh not available")
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Name: "java", Args: []string{"-jar", "/opt/antlr 4/tool.jar", "-Dlanguage=Cpp"}}
	assert.Equal(t, `java -jar '/opt/antlr 4/tool.jar' -Dlanguage=Cpp`, cmd.String())
}

func TestExecCapturesStreams(t *testing.T) {
	requireShell(t)

	res, err := Exec{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err 1>&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecNonZeroExit(t *testing.T) {
	requireShell(t)

	cmd := Command{Name: "sh", Args: []string{"-c", "echo partial; echo broken 1>&2; exit 3"}}
	res, err := Exec{}.Run(context.Background(), cmd)
	require.Error(t, err)
	assert.False(t, IsLaunchFailure(err))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Result.ExitCode)
	assert.Equal(t, "broken\n", string(exitErr.Result.Stderr))
	assert.Equal(t, "partial\n", string(res.Stdout))
	assert.Equal(t, "sh: exit status 3", exitErr.Error())
}

func TestExecLaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-tool")
	_, err := Exec{}.Run(context.Background(), Command{Name: missing})
	require.Error(t, err)
	assert.True(t, IsLaunchFailure(err))

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestExecDirAndEnv(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	res, err := Exec{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "pwd -P; echo $GRAMLINK_PROBE"},
		Dir:  dir,
		Env:  []string{"GRAMLINK_PROBE=yes"},
	})
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(dir)
	assert.Contains(t, string(res.Stdout), resolved)
	assert.Contains(t, string(res.Stdout), "yes")
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{Handler: func(cmd Command) (Result, error) {
		if cmd.Name == "ar" {
			return Fail(cmd, 1, "", "ar: bad archive")
		}
		return Result{Stdout: []byte("ok")}, nil
	}}

	_, err := rec.Run(context.Background(), Command{Name: "c++", Args: []string{"-c"}})
	require.NoError(t, err)
	_, err = rec.Run(context.Background(), Command{Name: "ar"})
	require.Error(t, err)

	assert.Len(t, rec.Calls(), 2)
	require.Len(t, rec.CallsTo("ar"), 1)
	assert.Empty(t, rec.CallsTo("cmake"))
}
