package generator

import (
	"fmt"

	"github.com/teranos/gramlink/errors"
)

// Kind is the closed set of generation-stage failures.
type Kind int

const (
	// KindRun means the generator process could not be launched.
	KindRun Kind = iota + 1
	// KindCmd means the generator ran and exited non-zero.
	KindCmd
	// KindGather means the output directory scan failed after a successful run.
	KindGather
)

func (k Kind) String() string {
	switch k {
	case KindRun:
		return "run"
	case KindCmd:
		return "cmd"
	case KindGather:
		return "gather"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// GenerateError is returned by Generate. Stdout and Stderr are only set
// for KindCmd and hold the generator's streams verbatim.
type GenerateError struct {
	Kind   Kind
	Err    error
	Stdout string
	Stderr string
}

func (e *GenerateError) Error() string {
	switch e.Kind {
	case KindRun:
		return fmt.Sprintf("error running generator command: %v", e.Err)
	case KindCmd:
		return fmt.Sprintf("error during generator run.\nstdout:\n%s\nstderr:\n%s", e.Stdout, e.Stderr)
	case KindGather:
		return fmt.Sprintf("error finding output files: %v", e.Err)
	default:
		return fmt.Sprintf("generator error: %v", e.Err)
	}
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

// KindOf returns the generation failure kind carried by err, or 0.
func KindOf(err error) Kind {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return 0
}
