package cppruntime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/errors"
)

func TestParseLinkMode(t *testing.T) {
	tests := []struct {
		in      string
		want    LinkMode
		wantErr bool
	}{
		{"static", LinkStatic, false},
		{"Dynamic", LinkDynamic, false},
		{" static ", LinkStatic, false},
		{"shared", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLinkMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidConfig(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncludeDirs(t *testing.T) {
	l := Layout{Root: "/opt/antlr4"}
	base := filepath.Join("/opt/antlr4", "include", "antlr4-runtime")
	assert.Equal(t, []string{
		base,
		filepath.Join(base, "atn"),
		filepath.Join(base, "dfa"),
		filepath.Join(base, "support"),
		filepath.Join(base, "misc"),
		filepath.Join(base, "tree"),
	}, l.IncludeDirs())
	assert.Equal(t, filepath.Join("/opt/antlr4", "lib"), l.LibDir())
}

func TestLinkStatic(t *testing.T) {
	l := Layout{Root: "/opt/antlr4", StaticSearchDirs: []string{"/usr/lib"}}
	spec := l.Link(LinkStatic)

	assert.Equal(t, LinkStatic, spec.Mode)
	assert.Equal(t, []string{filepath.Join("/opt/antlr4", "lib"), "/usr/lib"}, spec.SearchDirs)
	assert.Equal(t, []Lib{
		{Kind: directive.LibStatic, Name: "antlr4-runtime"},
		{Kind: directive.LibStatic, Name: "stdc++"},
	}, spec.Libs)

	flags := spec.LDFlags()
	assert.Equal(t, []string{
		"-L" + filepath.Join("/opt/antlr4", "lib"),
		"-L/usr/lib",
		"-Wl,-Bstatic",
		"-lantlr4-runtime",
		"-lstdc++",
		"-Wl,-Bdynamic",
	}, flags)
}

func TestLinkDynamic(t *testing.T) {
	l := Layout{Root: "/opt/antlr4", StaticSearchDirs: []string{"/usr/lib"}}
	spec := l.Link(LinkDynamic)

	assert.Equal(t, []string{filepath.Join("/opt/antlr4", "lib")}, spec.SearchDirs)
	assert.Equal(t, []Lib{{Kind: directive.LibDylib, Name: "antlr4-runtime"}}, spec.Libs)
	assert.Equal(t, []string{"-L" + filepath.Join("/opt/antlr4", "lib"), "-lantlr4-runtime"}, spec.LDFlags())
}

func TestLinkSpecEmit(t *testing.T) {
	rec := &directive.Recorder{}
	Layout{Root: "/rt"}.Link(LinkDynamic).Emit(rec)

	assert.Equal(t, []directive.Directive{
		{Key: directive.KeyLinkSearch, Value: "native=" + filepath.Join("/rt", "lib")},
		{Key: directive.KeyLinkLib, Value: "dylib=antlr4-runtime"},
	}, rec.Directives())
}

func TestInstalled(t *testing.T) {
	root := t.TempDir()
	l := Layout{Root: root}
	assert.False(t, l.Installed())

	require.NoError(t, os.MkdirAll(l.IncludeDirs()[0], 0755))
	assert.False(t, l.Installed())

	require.NoError(t, os.MkdirAll(l.LibDir(), 0755))
	assert.True(t, l.Installed())
}
