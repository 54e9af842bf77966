// Package procexec runs external tools synchronously and captures their
// output streams.
package procexec

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/logger"
	"go.uber.org/zap"
)

// ErrLaunch marks errors where the process could not be started at all.
var ErrLaunch = errors.New("process could not be started")

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// String returns the command line quoted for a POSIX shell.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	return string(r.Stdout) + string(r.Stderr)
}

// ExitError reports a process that ran and exited with a non-zero status.
type ExitError struct {
	Command Command
	Result  Result
}

func (e *ExitError) Error() string {
	return e.Command.Name + ": exit status " + strconv.Itoa(e.Result.ExitCode)
}

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Exec runs commands as real child processes.
type Exec struct {
	Log *zap.SugaredLogger
}

// Run starts cmd and blocks until it exits. A launch failure is marked with
// ErrLaunch; a non-zero exit is returned as *ExitError with both streams.
func (e Exec) Run(ctx context.Context, cmd Command) (Result, error) {
	log := logger.OrNop(e.Log)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	log.Debugw("Running command", logger.FieldCommand, cmd.String(), logger.FieldDir, cmd.Dir)
	start := time.Now()
	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Debugw("Command failed",
				logger.FieldCommand, cmd.Name,
				logger.FieldExitCode, res.ExitCode,
				logger.FieldDuration, time.Since(start).Milliseconds())
			return res, &ExitError{Command: cmd, Result: res}
		}
		return res, errors.Mark(errors.Wrapf(err, "failed to start %s", cmd.Name), ErrLaunch)
	}

	log.Debugw("Command finished",
		logger.FieldCommand, cmd.Name,
		logger.FieldDuration, time.Since(start).Milliseconds())
	return res, nil
}

// IsLaunchFailure reports whether err means the process never started.
func IsLaunchFailure(err error) bool {
	return errors.Is(err, ErrLaunch)
}
