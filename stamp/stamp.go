// Package stamp records what a library build consumed so that an unchanged
// library can be skipped on the next run.
package stamp

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/teranos/gramlink/errors"
)

// Stamp is the persisted record of one successful library build.
type Stamp struct {
	Library string `toml:"library"`
	// Config is the fingerprint of the settings the library was built with.
	Config  string    `toml:"config"`
	BuiltAt time.Time `toml:"built_at"`
	// Files maps every declared trigger file to its sha256.
	Files map[string]string `toml:"files"`
	// Artifacts must all still exist for the stamp to hold.
	Artifacts []string `toml:"artifacts"`
	// Directives are replayed when the build is skipped.
	Directives []string `toml:"directives"`
}

// Path returns the stamp file for library name inside outDir.
func Path(outDir, name string) string {
	return filepath.Join(outDir, name+".stamp.toml")
}

// Compute hashes every trigger file.
func Compute(name, fingerprint string, triggers, artifacts []string) (*Stamp, error) {
	s := &Stamp{
		Library:   name,
		Config:    fingerprint,
		BuiltAt:   time.Now().UTC().Truncate(time.Second),
		Files:     make(map[string]string, len(triggers)),
		Artifacts: append([]string(nil), artifacts...),
	}
	for _, path := range triggers {
		sum, err := HashFile(path)
		if err != nil {
			return nil, err
		}
		s.Files[path] = sum
	}
	return s, nil
}

// HashFile returns the hex sha256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Triggers returns the recorded trigger files in sorted order.
func (s *Stamp) Triggers() []string {
	out := make([]string, 0, len(s.Files))
	for path := range s.Files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Write stores s at path, replacing any previous stamp.
func (s *Stamp) Write(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return errors.Wrap(err, "failed to encode stamp")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create stamp directory")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}

// Read loads the stamp at path. A missing stamp is reported as
// errors.ErrNotFound.
func Read(path string) (*Stamp, error) {
	var s Stamp
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("no stamp at %s", path)
		}
		return nil, errors.Wrapf(err, "failed to decode stamp %s", path)
	}
	return &s, nil
}

// Remove deletes the stamp at path if there is one.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove stamp %s", path)
	}
	return nil
}

// Check compares a stored stamp against the current state of the inputs.
// The returned reason is empty when the stamp still holds.
func Check(path, fingerprint string, required []string) (string, error) {
	s, err := Read(path)
	if err != nil {
		if errors.IsNotFound(err) {
			return "no previous build", nil
		}
		return "", err
	}
	if s.Config != fingerprint {
		return "configuration changed", nil
	}
	for _, file := range required {
		if _, ok := s.Files[file]; !ok {
			return "new input " + file, nil
		}
	}
	for _, file := range s.Triggers() {
		sum, err := HashFile(file)
		if err != nil {
			return "input " + file + " is unreadable", nil
		}
		if sum != s.Files[file] {
			return file + " changed", nil
		}
	}
	for _, artifact := range s.Artifacts {
		if _, err := os.Stat(artifact); err != nil {
			return "artifact " + artifact + " is missing", nil
		}
	}
	return "", nil
}
