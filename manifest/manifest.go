// Package manifest reads gramlink.hcl, the project file that lists the
// libraries to generate and assemble.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/generator"
	"github.com/teranos/gramlink/native"
)

// DefaultFileName is the manifest read when none is named.
const DefaultFileName = "gramlink.hcl"

// Manifest is a decoded project file with every path made absolute.
type Manifest struct {
	Path string `json:"path" yaml:"path"`
	Dir  string `json:"dir" yaml:"dir"`
	// LinkMode is empty when the manifest leaves it to configuration.
	LinkMode  cppruntime.LinkMode `json:"link_mode,omitempty" yaml:"link_mode,omitempty"`
	Libraries []Library           `json:"libraries" yaml:"libraries"`
}

// Library is one static library built from a set of grammars and shims.
type Library struct {
	Name        string   `json:"name" yaml:"name"`
	Grammars    []string `json:"grammars" yaml:"grammars"`
	OutDir      string   `json:"out_dir" yaml:"out_dir"`
	Listener    bool     `json:"listener" yaml:"listener"`
	Visitor     bool     `json:"visitor" yaml:"visitor"`
	Package     string   `json:"package,omitempty" yaml:"package,omitempty"`
	ShimSources []string `json:"shim_sources,omitempty" yaml:"shim_sources,omitempty"`
	ShimHeaders []string `json:"shim_headers,omitempty" yaml:"shim_headers,omitempty"`
}

// Request returns the generation request for the library.
func (l Library) Request() generator.Request {
	return generator.Request{
		GrammarFiles: append([]string(nil), l.Grammars...),
		OutDir:       l.OutDir,
		NoListener:   !l.Listener,
		Visitor:      l.Visitor,
		Package:      l.Package,
	}
}

// Inputs returns every file the library is built from.
func (l Library) Inputs() []string {
	out := make([]string, 0, len(l.Grammars)+len(l.ShimSources)+len(l.ShimHeaders))
	out = append(out, l.Grammars...)
	out = append(out, l.ShimSources...)
	return append(out, l.ShimHeaders...)
}

// hclFile is the top-level structure of a manifest for decoding.
type hclFile struct {
	LinkMode  *string       `hcl:"link_mode,optional"`
	Libraries []*hclLibrary `hcl:"library,block"`
}

type hclLibrary struct {
	Name        string   `hcl:"name,label"`
	Grammars    []string `hcl:"grammars"`
	OutDir      *string  `hcl:"out_dir,optional"`
	Listener    *bool    `hcl:"listener,optional"`
	Visitor     bool     `hcl:"visitor,optional"`
	Package     string   `hcl:"package,optional"`
	ShimSources []string `hcl:"shim_sources,optional"`
	ShimHeaders []string `hcl:"shim_headers,optional"`
}

// Load reads the manifest at path. buildDir, when relative, is taken
// relative to the manifest's directory.
func Load(path, buildDir string) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.NewNotFoundError("manifest %s does not exist", path),
				"create "+DefaultFileName+" with at least one library block")
		}
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}
	return Parse(src, path, buildDir)
}

// Parse decodes manifest source. filename locates relative paths and
// appears in diagnostics.
func Parse(src []byte, filename, buildDir string) (*Manifest, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve manifest path %s", filename)
	}
	dir := filepath.Dir(abs)
	buildDir = resolve(dir, buildDir)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError("failed to parse manifest", diags)
	}

	var decoded hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(dir, buildDir), &decoded)
	if diags.HasErrors() {
		return nil, diagError("failed to decode manifest", diags)
	}

	m := &Manifest{Path: abs, Dir: dir}
	if decoded.LinkMode != nil {
		mode, err := cppruntime.ParseLinkMode(*decoded.LinkMode)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: link_mode", filename)
		}
		m.LinkMode = mode
	}

	if len(decoded.Libraries) == 0 {
		return nil, errors.NewInvalidConfigError("%s declares no library blocks", filename)
	}
	seen := make(map[string]bool, len(decoded.Libraries))
	for _, block := range decoded.Libraries {
		if !native.ValidLibraryName(block.Name) {
			return nil, errors.NewInvalidConfigError("%s: invalid library name %q", filename, block.Name)
		}
		if seen[block.Name] {
			return nil, errors.NewInvalidConfigError("%s: duplicate library %q", filename, block.Name)
		}
		seen[block.Name] = true
		m.Libraries = append(m.Libraries, block.toLibrary(dir, buildDir))
	}
	return m, nil
}

func (b *hclLibrary) toLibrary(dir, buildDir string) Library {
	lib := Library{
		Name:        b.Name,
		Grammars:    resolveAll(dir, b.Grammars),
		OutDir:      filepath.Join(buildDir, "generated", b.Name),
		Listener:    true,
		Visitor:     b.Visitor,
		Package:     b.Package,
		ShimSources: resolveAll(dir, b.ShimSources),
		ShimHeaders: resolveAll(dir, b.ShimHeaders),
	}
	if b.OutDir != nil {
		lib.OutDir = resolve(dir, *b.OutDir)
	}
	if b.Listener != nil {
		lib.Listener = *b.Listener
	}
	return lib
}

// Lookup returns the library named name.
func (m *Manifest) Lookup(name string) (Library, bool) {
	for _, lib := range m.Libraries {
		if lib.Name == name {
			return lib, true
		}
	}
	return Library{}, false
}

// Inputs returns the manifest itself followed by every library input.
func (m *Manifest) Inputs() []string {
	out := []string{m.Path}
	for _, lib := range m.Libraries {
		out = append(out, lib.Inputs()...)
	}
	return out
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

func resolveAll(dir string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolve(dir, p)
	}
	return out
}

func diagError(msg string, diags hcl.Diagnostics) error {
	return errors.Wrap(errors.ErrInvalidConfig, msg+": "+diags.Error())
}
