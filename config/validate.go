package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/teranos/gramlink/errors"
)

// Validate checks that the configuration is usable. Every failure wraps
// errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	if _, err := c.LinkMode(); err != nil {
		return err
	}

	required := []struct{ key, value string }{
		{"generator.launcher", c.Generator.Launcher},
		{"generator.language", c.Generator.Language},
		{"build.compiler", c.Build.Compiler},
		{"build.archiver", c.Build.Archiver},
		{"build.std", c.Build.Std},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.NewInvalidConfigError("%s cannot be empty", r.key)
		}
	}

	if _, err := c.CXXFlagList(); err != nil {
		return err
	}

	if c.Watch.DebounceMs < 0 {
		return errors.NewInvalidConfigError("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMs)
	}

	return c.validateVersions()
}

// validateVersions requires the generator and runtime to agree on
// major.minor. They are released independently and the generated code only
// compiles against a runtime of the same series.
func (c *Config) validateVersions() error {
	gen, err := semver.NewVersion(c.Generator.Version)
	if err != nil {
		return errors.NewInvalidConfigError("invalid generator.version %s: %v", c.Generator.Version, err)
	}
	rt, err := semver.NewVersion(c.Runtime.Version)
	if err != nil {
		return errors.NewInvalidConfigError("invalid runtime.version %s: %v", c.Runtime.Version, err)
	}

	constraint, err := semver.NewConstraint(fmt.Sprintf("~%d.%d", rt.Major(), rt.Minor()))
	if err != nil {
		return errors.Wrap(err, "failed to build version constraint")
	}
	// Snapshot builds of the generator still belong to their series
	release, err := gen.SetPrerelease("")
	if err != nil {
		return errors.Wrap(err, "failed to strip prerelease")
	}
	if !constraint.Check(&release) {
		return errors.NewInvalidConfigError("generator %s is incompatible with runtime %s (want %s)",
			c.Generator.Version, c.Runtime.Version, constraint)
	}
	return nil
}
