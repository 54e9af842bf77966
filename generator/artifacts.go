package generator

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/gramlink/scan"
)

// FileClass is the role of a generated file in the native build.
type FileClass int

const (
	// Unclassified files (token tables, interp files, foreign sources) are ignored.
	Unclassified FileClass = iota
	Source
	Header
)

func (c FileClass) String() string {
	switch c {
	case Source:
		return "source"
	case Header:
		return "header"
	default:
		return "unclassified"
	}
}

var classByExt = map[string]FileClass{
	".cpp": Source,
	".cc":  Source,
	".cxx": Source,
	".h":   Header,
	".hh":  Header,
	".hpp": Header,
}

// Classify decides a file's role purely from its extension.
func Classify(path string) FileClass {
	return classByExt[strings.ToLower(filepath.Ext(path))]
}

// ArtifactSet is the classified output of one generator run, plus the
// adapter headers registered for binding generation.
type ArtifactSet struct {
	SourceFiles []string `json:"source_files" yaml:"source_files"`
	HeaderFiles []string `json:"header_files" yaml:"header_files"`
	// SourceDir is the directory that was scanned.
	SourceDir string `json:"source_dir" yaml:"source_dir"`
	// RuntimeIncludeDirs come from the runtime support library.
	RuntimeIncludeDirs []string `json:"runtime_include_dirs" yaml:"runtime_include_dirs"`
	// ShimHeaders only drive binding generation; they are not added to
	// the compile include path.
	ShimHeaders []string `json:"shim_headers,omitempty" yaml:"shim_headers,omitempty"`
}

// Empty reports whether no sources and no headers were discovered.
func (s *ArtifactSet) Empty() bool {
	return len(s.SourceFiles) == 0 && len(s.HeaderFiles) == 0
}

// IncludeDirs is the compile include set: SourceDir followed by the runtime directories.
func (s *ArtifactSet) IncludeDirs() []string {
	return append([]string{s.SourceDir}, s.RuntimeIncludeDirs...)
}

// Gather scans dir and classifies every file found below it. An empty
// result is not an error.
func Gather(dir string, runtimeIncludeDirs []string) (*ArtifactSet, error) {
	set := &ArtifactSet{
		SourceDir:          dir,
		RuntimeIncludeDirs: append([]string(nil), runtimeIncludeDirs...),
	}
	err := scan.Walk(dir, func(e scan.Entry) {
		if !isRegularFile(e) {
			return
		}
		switch Classify(e.Path) {
		case Source:
			set.SourceFiles = append(set.SourceFiles, e.Path)
		case Header:
			set.HeaderFiles = append(set.HeaderFiles, e.Path)
		}
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// isRegularFile reports whether e is a regular file, or a symlink that
// resolves to one. Directories, dangling links and special files are skipped.
func isRegularFile(e scan.Entry) bool {
	mode := e.Type()
	if mode.IsRegular() {
		return true
	}
	if mode&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(e.Path)
	return err == nil && info.Mode().IsRegular()
}
