package native

import (
	"fmt"

	"github.com/teranos/gramlink/errors"
)

// ErrBuildAborted matches every *BuildAbort. Downstream failures are not
// recoverable: a partially assembled library cannot be consumed.
var ErrBuildAborted = errors.New("native build aborted")

// Stage names the step of Build that failed.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageCompile Stage = "compile"
	StageArchive Stage = "archive"
	StageBinding Stage = "binding"
)

// BuildAbort is the terminal result of a failed Build. Output carries the
// failing tool's diagnostics unmodified.
type BuildAbort struct {
	Library string
	Stage   Stage
	Err     error
	Output  string
}

func (e *BuildAbort) Error() string {
	msg := fmt.Sprintf("native build of %s aborted during %s: %v", e.Library, e.Stage, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *BuildAbort) Unwrap() error {
	return e.Err
}

// Is makes every BuildAbort match ErrBuildAborted.
func (e *BuildAbort) Is(target error) bool {
	return target == ErrBuildAborted
}

// IsAborted reports whether err is a build abort.
func IsAborted(err error) bool {
	return errors.Is(err, ErrBuildAborted)
}
