package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/gramlink/errors"
)

func TestWriteFileRoundTrip(t *testing.T) {
	clearToolchainEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	cfg := Default()
	cfg.Build.LinkMode = "static"

	require.NoError(t, WriteFile(path, cfg, false))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "static", loaded.Build.LinkMode)
	assert.Equal(t, cfg.Binding.Args, loaded.Binding.Args)
}

func TestWriteFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0644))

	err := WriteFile(path, Default(), false)
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "--force")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))
}

func TestWriteFileBacksUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("# first\n"), 0644))

	require.NoError(t, WriteFile(path, Default(), true))
	backup, err := os.ReadFile(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, "# first\n", string(backup))

	require.NoError(t, WriteFile(path, Default(), true))
	assert.FileExists(t, path+".back2")
}

func TestMarshalFormats(t *testing.T) {
	cfg := Default()
	for _, format := range []string{FormatTOML, FormatYAML, FormatJSON} {
		data, err := Marshal(cfg, format)
		require.NoError(t, err, format)
		assert.Contains(t, string(data), "link_mode", format)
	}

	_, err := Marshal(cfg, "xml")
	assert.True(t, errors.IsInvalidConfig(err))
}
