// Package cppruntime describes the prebuilt C++ runtime support library
// that generated parsers link against: where its headers live, how it is
// linked, and how to build it from source when no prebuilt copy exists.
package cppruntime

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/errors"
)

// LinkMode selects how the runtime is linked into the consuming build.
// It is fixed for a whole build.
type LinkMode string

const (
	LinkDynamic LinkMode = "dynamic"
	LinkStatic  LinkMode = "static"
)

// ParseLinkMode accepts "static" or "dynamic" (case-insensitive).
func ParseLinkMode(s string) (LinkMode, error) {
	switch LinkMode(strings.ToLower(strings.TrimSpace(s))) {
	case LinkDynamic:
		return LinkDynamic, nil
	case LinkStatic:
		return LinkStatic, nil
	}
	return "", errors.NewInvalidConfigError("unknown link mode %q (want static or dynamic)", s)
}

const (
	// LibraryName is the runtime archive / shared object name without lib prefix.
	LibraryName = "antlr4-runtime"
	// StdLibName is the C++ standard library linked alongside a static runtime.
	StdLibName = "stdc++"
)

// Header directories below <root>/include, relative to antlr4-runtime.
var includeSubdirs = []string{"", "atn", "dfa", "support", "misc", "tree"}

// Layout locates an installed runtime.
type Layout struct {
	// Root is the install prefix holding include/ and lib/.
	Root string
	// StaticSearchDirs are extra library search paths used in static mode
	// to find the standard library archive.
	StaticSearchDirs []string
}

// IncludeDirs returns the fixed list of runtime header directories.
func (l Layout) IncludeDirs() []string {
	base := filepath.Join(l.Root, "include", "antlr4-runtime")
	dirs := make([]string, 0, len(includeSubdirs))
	for _, sub := range includeSubdirs {
		dirs = append(dirs, filepath.Join(base, sub))
	}
	return dirs
}

// LibDir returns the directory holding the runtime archive.
func (l Layout) LibDir() string {
	return filepath.Join(l.Root, "lib")
}

// Installed reports whether the main header directory and library directory exist.
func (l Layout) Installed() bool {
	for _, dir := range []string{l.IncludeDirs()[0], l.LibDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// Lib is one library to link.
type Lib struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name" yaml:"name"`
}

// LinkSpec is everything the consuming build needs to link the runtime.
type LinkSpec struct {
	Mode       LinkMode `json:"mode" yaml:"mode"`
	SearchDirs []string `json:"search_dirs" yaml:"search_dirs"`
	Libs       []Lib    `json:"libs" yaml:"libs"`
}

// Link returns the link specification for mode. Static mode links the
// runtime archive and the standard library archive; dynamic mode links the
// runtime as a shared dependency.
func (l Layout) Link(mode LinkMode) LinkSpec {
	spec := LinkSpec{Mode: mode, SearchDirs: []string{l.LibDir()}}
	if mode == LinkStatic {
		spec.SearchDirs = append(spec.SearchDirs, l.StaticSearchDirs...)
		spec.Libs = []Lib{
			{Kind: directive.LibStatic, Name: LibraryName},
			{Kind: directive.LibStatic, Name: StdLibName},
		}
		return spec
	}
	spec.Libs = []Lib{{Kind: directive.LibDylib, Name: LibraryName}}
	return spec
}

// Emit declares the search paths and libraries on e.
func (s LinkSpec) Emit(e directive.Emitter) {
	for _, dir := range s.SearchDirs {
		e.LinkSearch(directive.SearchNative, dir)
	}
	for _, lib := range s.Libs {
		e.LinkLib(lib.Kind, lib.Name)
	}
}

// LDFlags renders the spec as linker flags, suitable for #cgo LDFLAGS.
func (s LinkSpec) LDFlags() []string {
	var flags []string
	for _, dir := range s.SearchDirs {
		flags = append(flags, "-L"+dir)
	}
	static := false
	for _, lib := range s.Libs {
		wantStatic := lib.Kind == directive.LibStatic
		if wantStatic != static {
			if wantStatic {
				flags = append(flags, "-Wl,-Bstatic")
			} else {
				flags = append(flags, "-Wl,-Bdynamic")
			}
			static = wantStatic
		}
		flags = append(flags, "-l"+lib.Name)
	}
	if static {
		flags = append(flags, "-Wl,-Bdynamic")
	}
	return flags
}
