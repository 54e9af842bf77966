// Package config holds the gramlink tool configuration: where the generator
// and runtime live, how native code is compiled, and how bindings are made.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/pelletier/go-toml/v2"
	"github.com/teranos/gramlink/cppruntime"
	"github.com/teranos/gramlink/errors"
)

// FileName is the project configuration file searched for upward from the
// working directory.
const FileName = "gramlink.toml"

// Config represents the complete gramlink configuration
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator" toml:"generator" yaml:"generator" json:"generator"`
	Runtime   RuntimeConfig   `mapstructure:"runtime" toml:"runtime" yaml:"runtime" json:"runtime"`
	Build     BuildConfig     `mapstructure:"build" toml:"build" yaml:"build" json:"build"`
	Binding   BindingConfig   `mapstructure:"binding" toml:"binding" yaml:"binding" json:"binding"`
	Watch     WatchConfig     `mapstructure:"watch" toml:"watch" yaml:"watch" json:"watch"`

	// File is the configuration file that was read, empty when none was found.
	File string `mapstructure:"-" toml:"-" yaml:"-" json:"-"`
}

// GeneratorConfig locates the parser generator artifact. Jar is overridden
// by ANTLR_JAR.
type GeneratorConfig struct {
	Launcher  string `mapstructure:"launcher" toml:"launcher" yaml:"launcher" json:"launcher"`
	Jar       string `mapstructure:"jar" toml:"jar" yaml:"jar" json:"jar"`
	SourceDir string `mapstructure:"source_dir" toml:"source_dir" yaml:"source_dir" json:"source_dir"`
	Version   string `mapstructure:"version" toml:"version" yaml:"version" json:"version"`
	Language  string `mapstructure:"language" toml:"language" yaml:"language" json:"language"`
}

// RuntimeConfig locates the C++ runtime support library. Root is the install
// prefix; an empty SourceDir means <generator.source_dir>/runtime/Cpp.
type RuntimeConfig struct {
	Root      string `mapstructure:"root" toml:"root" yaml:"root" json:"root"`
	SourceDir string `mapstructure:"source_dir" toml:"source_dir" yaml:"source_dir" json:"source_dir"`
	Version   string `mapstructure:"version" toml:"version" yaml:"version" json:"version"`
	Debug     bool   `mapstructure:"debug" toml:"debug" yaml:"debug" json:"debug"`
}

// BuildConfig configures native compilation. CXXFlags is a shell-quoted
// flag string.
type BuildConfig struct {
	LinkMode         string   `mapstructure:"link_mode" toml:"link_mode" yaml:"link_mode" json:"link_mode"`
	Compiler         string   `mapstructure:"compiler" toml:"compiler" yaml:"compiler" json:"compiler"`
	Archiver         string   `mapstructure:"archiver" toml:"archiver" yaml:"archiver" json:"archiver"`
	Std              string   `mapstructure:"std" toml:"std" yaml:"std" json:"std"`
	OutDir           string   `mapstructure:"out_dir" toml:"out_dir" yaml:"out_dir" json:"out_dir"`
	CXXFlags         string   `mapstructure:"cxxflags" toml:"cxxflags" yaml:"cxxflags" json:"cxxflags"`
	StaticSearchDirs []string `mapstructure:"static_search_dirs" toml:"static_search_dirs" yaml:"static_search_dirs" json:"static_search_dirs"`
}

// BindingConfig configures the external binding generator
type BindingConfig struct {
	Command   string   `mapstructure:"command" toml:"command" yaml:"command" json:"command"`
	Extension string   `mapstructure:"extension" toml:"extension" yaml:"extension" json:"extension"`
	Args      []string `mapstructure:"args" toml:"args" yaml:"args" json:"args"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
}

// LinkMode parses build.link_mode.
func (c *Config) LinkMode() (cppruntime.LinkMode, error) {
	return cppruntime.ParseLinkMode(c.Build.LinkMode)
}

// RuntimeSourceDir returns runtime.source_dir, defaulting to the runtime
// sources inside the generator checkout.
func (c *Config) RuntimeSourceDir() string {
	if c.Runtime.SourceDir != "" {
		return c.Runtime.SourceDir
	}
	return filepath.Join(c.Generator.SourceDir, "runtime", "Cpp")
}

// RuntimeLayout returns the installed runtime layout.
func (c *Config) RuntimeLayout() cppruntime.Layout {
	return cppruntime.Layout{
		Root:             c.Runtime.Root,
		StaticSearchDirs: c.Build.StaticSearchDirs,
	}
}

// CXXFlagList splits build.cxxflags the way a POSIX shell would.
func (c *Config) CXXFlagList() ([]string, error) {
	flags, err := shellquote.Split(c.Build.CXXFlags)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "build.cxxflags: "+err.Error())
	}
	return flags, nil
}

// DebounceInterval returns watch.debounce_ms as a duration
func (c *Config) DebounceInterval() time.Duration {
	if c.Watch.DebounceMs <= 0 {
		return DefaultDebounceMs * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// Fingerprint summarizes every setting that changes build output. Two
// configs with the same fingerprint produce the same libraries.
func (c *Config) Fingerprint() string {
	relevant := struct {
		Generator GeneratorConfig `toml:"generator"`
		Runtime   RuntimeConfig   `toml:"runtime"`
		Build     BuildConfig     `toml:"build"`
		Binding   BindingConfig   `toml:"binding"`
	}{c.Generator, c.Runtime, c.Build, c.Binding}

	data, err := toml.Marshal(relevant)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
