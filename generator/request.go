package generator

// DefaultOutDir is used when a Request does not name an output directory.
const DefaultOutDir = "."

// Request is the complete configuration for one generator run. The zero
// value emits listeners and no visitors into the current directory.
type Request struct {
	// GrammarFiles are passed to the generator verbatim and in order; for
	// multi-file grammars the order can change the output.
	GrammarFiles []string `json:"grammar_files" yaml:"grammar_files"`
	// OutDir receives the generated tree. The caller creates it.
	OutDir string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	// NoListener suppresses listener generation.
	NoListener bool `json:"no_listener,omitempty" yaml:"no_listener,omitempty"`
	// Visitor enables visitor generation.
	Visitor bool `json:"visitor,omitempty" yaml:"visitor,omitempty"`
	// Package is the namespace applied to generated code.
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
}

// Listener reports whether listeners will be generated.
func (r Request) Listener() bool {
	return !r.NoListener
}

// ResolvedOutDir returns OutDir, or DefaultOutDir when unset.
func (r Request) ResolvedOutDir() string {
	if r.OutDir == "" {
		return DefaultOutDir
	}
	return r.OutDir
}

// Args builds the generator's argument list after the launcher:
//
//	-jar <jar> -Dlanguage=<lang> [-o <dir>] [-package <p>] [-no-listener] [-visitor] <grammar>...
func (r Request) Args(jar, language string) []string {
	args := []string{"-jar", jar, "-Dlanguage=" + language}
	if r.OutDir != "" {
		args = append(args, "-o", r.OutDir)
	}
	if r.Package != "" {
		args = append(args, "-package", r.Package)
	}
	if r.NoListener {
		args = append(args, "-no-listener")
	}
	if r.Visitor {
		args = append(args, "-visitor")
	}
	return append(args, r.GrammarFiles...)
}
