package config

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Default values that other packages refer to
const (
	DefaultLauncher         = "java"
	DefaultGeneratorVersion = "4.7.2-SNAPSHOT"
	DefaultRuntimeVersion   = "4.7.2"
	DefaultDebounceMs       = 500
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Generator
	v.SetDefault("generator.launcher", DefaultLauncher)
	v.SetDefault("generator.jar", "")
	v.SetDefault("generator.source_dir", "antlr4-upstream")
	v.SetDefault("generator.version", DefaultGeneratorVersion)
	v.SetDefault("generator.language", "Cpp")

	// Runtime
	v.SetDefault("runtime.root", "antlr4")
	v.SetDefault("runtime.source_dir", "") // derived from generator.source_dir
	v.SetDefault("runtime.version", DefaultRuntimeVersion)
	v.SetDefault("runtime.debug", false)

	// Native build
	v.SetDefault("build.link_mode", "dynamic")
	v.SetDefault("build.compiler", "c++")
	v.SetDefault("build.archiver", "ar")
	v.SetDefault("build.std", "c++14")
	v.SetDefault("build.out_dir", "build")
	v.SetDefault("build.cxxflags", "")
	v.SetDefault("build.static_search_dirs", []string{"/usr/lib"})

	// Binding generator (bindgen-style command line)
	v.SetDefault("binding.command", "bindgen")
	v.SetDefault("binding.extension", "rs")
	v.SetDefault("binding.args", []string{"{header}", "--output", "{output}", "--", "-std={std}", "-xc++"})

	v.SetDefault("watch.debounce_ms", DefaultDebounceMs)
}

// envBindings are the conventional toolchain variables for each key, in
// lookup order.
var envBindings = []struct {
	key   string
	names []string
}{
	{"generator.jar", []string{"ANTLR_JAR", "GRAMLINK_GENERATOR_JAR"}},
	{"build.compiler", []string{"GRAMLINK_BUILD_COMPILER", "CXX"}},
	{"build.archiver", []string{"GRAMLINK_BUILD_ARCHIVER", "AR"}},
	{"build.cxxflags", []string{"GRAMLINK_BUILD_CXXFLAGS", "CXXFLAGS"}},
	{"build.out_dir", []string{"GRAMLINK_BUILD_OUT_DIR", "OUT_DIR"}},
}

// BindEnvVars binds the conventional toolchain environment variables. Each
// also has a GRAMLINK_ prefixed form through AutomaticEnv.
func BindEnvVars(v *viper.Viper) {
	for _, b := range envBindings {
		mustBindEnv(v, append([]string{b.key}, b.names...)...)
	}
}

// mustBindEnv panics on error; BindEnv only fails when called without a key.
func mustBindEnv(v *viper.Viper, input ...string) {
	if err := v.BindEnv(input...); err != nil {
		panic(err)
	}
}

// EnvNames returns every environment variable that can set key: the
// explicit bindings followed by the GRAMLINK_ form.
func EnvNames(key string) []string {
	auto := "GRAMLINK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	for _, b := range envBindings {
		if b.key == key {
			if slices.Contains(b.names, auto) {
				return b.names
			}
			return append(append([]string(nil), b.names...), auto)
		}
	}
	return []string{auto}
}

// FromEnv reports whether key is currently set by a non-empty environment
// variable. Empty variables are ignored, as viper ignores them.
func FromEnv(key string) bool {
	for _, name := range EnvNames(key) {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			return true
		}
	}
	return false
}

// Default returns the configuration with no file and no environment applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always decode
		panic(err)
	}
	return cfg
}
