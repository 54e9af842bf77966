package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/teranos/gramlink/errors"
)

// Load reads the configuration. An explicit configFile must exist; with an
// empty configFile the nearest gramlink.toml above the working directory is
// used if there is one. Environment variables override file values.
// Relative paths are resolved against the file's directory, or the working
// directory when no file was read.
func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()

	base := ""
	if cfg.File != "" {
		base = filepath.Dir(cfg.File)
	}
	if err := cfg.ResolvePaths(base); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance with defaults, environment bindings
// and the configuration file loaded.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("GRAMLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	if configFile == "" {
		configFile = findProjectConfig()
	}
	if configFile == "" {
		return v, nil
	}

	v.SetConfigFile(configFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return nil, errors.NewNotFoundError("config file %s does not exist", configFile)
		}
		return nil, errors.Wrap(errors.ErrInvalidConfig, "failed to read config file "+configFile+": "+err.Error())
	}
	return v, nil
}

// LoadWithViper decodes configuration from a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// findProjectConfig searches for gramlink.toml by walking up the directory tree.
// Returns the path to the first file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return FindUpward(dir, FileName)
}

// FindUpward returns the first dir/name, walking up from dir to the
// filesystem root, or empty string if none exists.
func FindUpward(dir, name string) string {
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
