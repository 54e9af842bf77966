package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
	"github.com/teranos/gramlink/errors"
)

// ResolvePaths makes every configured filesystem path absolute. Relative
// paths are taken relative to base, or the working directory when base is
// empty. Values that came from the environment are always taken relative to
// the working directory. Empty paths stay empty.
func (c *Config) ResolvePaths(base string) error {
	pwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get working directory")
	}
	if base == "" {
		base = pwd
	}
	baseFor := func(key string) string {
		if FromEnv(key) {
			return pwd
		}
		return base
	}

	fields := []struct {
		key string
		ptr *string
	}{
		{"generator.jar", &c.Generator.Jar},
		{"generator.source_dir", &c.Generator.SourceDir},
		{"runtime.root", &c.Runtime.Root},
		{"runtime.source_dir", &c.Runtime.SourceDir},
		{"build.out_dir", &c.Build.OutDir},
	}
	for _, f := range fields {
		if *f.ptr == "" {
			continue
		}
		resolved, err := ExpandPath(*f.ptr, baseFor(f.key))
		if err != nil {
			return errors.Wrap(errors.ErrInvalidConfig, f.key+": "+err.Error())
		}
		*f.ptr = resolved
	}

	searchBase := baseFor("build.static_search_dirs")
	for i, dir := range c.Build.StaticSearchDirs {
		resolved, err := ExpandPath(dir, searchBase)
		if err != nil {
			return errors.Wrap(errors.ErrInvalidConfig, "build.static_search_dirs: "+err.Error())
		}
		c.Build.StaticSearchDirs[i] = resolved
	}
	return nil
}

// ExpandPath expands ~ and resolves path against base using go-getter's
// detection. Only local filesystem paths are accepted.
func ExpandPath(path, base string) (string, error) {
	// Handle tilde expansion first (go-getter doesn't do this)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get home directory")
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	detected, err := getter.Detect(path, base, []getter.Detector{new(getter.FileDetector)})
	if err != nil {
		return "", errors.Wrapf(err, "invalid path %q", path)
	}

	u, err := url.Parse(detected)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse path")
	}
	switch u.Scheme {
	case "file":
		return filepath.Clean(u.Path), nil
	case "":
		if filepath.IsAbs(path) {
			return filepath.Clean(path), nil
		}
		return filepath.Join(base, path), nil
	}
	return "", errors.Newf("unsupported path scheme: %s (expected a local path)", u.Scheme)
}
