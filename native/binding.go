package native

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/internal/procexec"
	"github.com/teranos/gramlink/logger"
	"go.uber.org/zap"
)

// BindingRequest asks for one foreign-callable binding covering all Headers.
type BindingRequest struct {
	Name    string
	Headers []string
	// Std is the language standard the headers are interpreted under.
	Std string
	// Output is the binding file to write.
	Output string
}

// Binder generates a binding source file from native headers.
type Binder interface {
	GenerateBinding(ctx context.Context, req BindingRequest) error
}

// Placeholders substituted in CommandBinder.Args.
const (
	PlaceholderHeader = "{header}"
	PlaceholderOutput = "{output}"
	PlaceholderStd    = "{std}"
	PlaceholderName   = "{name}"
)

// DefaultBindingArgs drives a bindgen-style command line.
var DefaultBindingArgs = []string{
	PlaceholderHeader, "--output", PlaceholderOutput, "--", "-std=" + PlaceholderStd, "-xc++",
}

// CommandBinder runs an external binding generator. All requested headers
// are included from one wrapper header so the tool sees a single
// translation unit.
type CommandBinder struct {
	Command string
	Args    []string

	Runner procexec.Runner
	Log    *zap.SugaredLogger
}

// WrapperPath returns where the combined header for req is written.
func WrapperPath(req BindingRequest) string {
	return filepath.Join(filepath.Dir(req.Output), req.Name+"_bindings.hpp")
}

// WriteWrapper writes a header that includes every header in req, in order.
func WriteWrapper(req BindingRequest) (string, error) {
	var b strings.Builder
	b.WriteString("// Combined binding input for " + req.Name + ".\n")
	for _, h := range req.Headers {
		abs, err := filepath.Abs(h)
		if err != nil {
			return "", errors.Wrapf(err, "failed to resolve header %s", h)
		}
		fmt.Fprintf(&b, "#include %q\n", abs)
	}
	path := WrapperPath(req)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create binding directory")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write binding wrapper %s", path)
	}
	return path, nil
}

// ExpandArgs substitutes the placeholders in args.
func ExpandArgs(args []string, header string, req BindingRequest) []string {
	r := strings.NewReplacer(
		PlaceholderHeader, header,
		PlaceholderOutput, req.Output,
		PlaceholderStd, req.Std,
		PlaceholderName, req.Name,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// GenerateBinding implements Binder.
func (b *CommandBinder) GenerateBinding(ctx context.Context, req BindingRequest) error {
	log := logger.OrNop(b.Log)
	runner := b.Runner
	if runner == nil {
		runner = procexec.Exec{Log: log}
	}
	command := b.Command
	if command == "" {
		command = "bindgen"
	}
	args := b.Args
	if len(args) == 0 {
		args = DefaultBindingArgs
	}

	wrapper, err := WriteWrapper(req)
	if err != nil {
		return err
	}

	cmd := procexec.Command{Name: command, Args: ExpandArgs(args, wrapper, req)}
	log.Infow("Generating bindings", "headers", req.Headers, "output", req.Output)
	if _, err := runner.Run(ctx, cmd); err != nil {
		return err
	}
	if _, err := os.Stat(req.Output); err != nil {
		return errors.Wrapf(err, "%s did not produce %s", command, req.Output)
	}
	return nil
}
