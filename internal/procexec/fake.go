package procexec

import (
	"context"
	"sync"
)

// Recorder is a Runner that records every command instead of executing it.
// Handler, when set, decides the outcome of each call.
type Recorder struct {
	Handler func(cmd Command) (Result, error)

	mu    sync.Mutex
	calls []Command
}

// Run records cmd and delegates to Handler.
func (r *Recorder) Run(ctx context.Context, cmd Command) (Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()
	if r.Handler == nil {
		return Result{}, nil
	}
	return r.Handler(cmd)
}

// Calls returns a copy of the recorded commands in call order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.calls...)
}

// CallsTo returns the recorded commands whose Name equals name.
func (r *Recorder) CallsTo(name string) []Command {
	var out []Command
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Fail builds a Result and *ExitError for a command that exited with code.
func Fail(cmd Command, code int, stdout, stderr string) (Result, error) {
	res := Result{Stdout: []byte(stdout), Stderr: []byte(stderr), ExitCode: code}
	return res, &ExitError{Command: cmd, Result: res}
}
