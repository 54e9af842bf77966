package directive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.RerunIfChanged("JSON.g4")
	w.LinkSearch(SearchNative, "/opt/antlr4/lib")
	w.LinkLib(LibStatic, "antlr4-runtime")

	assert.Equal(t,
		"gramlink:rerun-if-changed=JSON.g4\n"+
			"gramlink:link-search=native=/opt/antlr4/lib\n"+
			"gramlink:link-lib=static=antlr4-runtime\n",
		buf.String())
}

func TestWriterCustomPrefix(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{W: &buf, Prefix: "cargo:"}
	w.LinkLib(LibDylib, "antlr4-runtime")
	assert.Equal(t, "cargo:link-lib=dylib=antlr4-runtime\n", buf.String())
}

func TestRecorderTriggersDeduplicated(t *testing.T) {
	r := &Recorder{}
	r.RerunIfChanged("a.g4")
	r.LinkLib(LibStatic, "json")
	r.RerunIfChanged("src/shim.cpp")
	r.RerunIfChanged("a.g4")

	assert.Equal(t, []string{"a.g4", "src/shim.cpp"}, r.Triggers())
	assert.Len(t, r.Directives(), 4)

	r.Reset()
	assert.Empty(t, r.Directives())
}

func TestTee(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	e := Tee(a, b, Discard)

	e.RerunIfChanged("x.h")
	e.LinkSearch(SearchNative, "/lib")
	e.LinkLib(LibDylib, "y")

	assert.Equal(t, a.Directives(), b.Directives())
	assert.Equal(t, "link-search=native=/lib", a.Directives()[1].String())
}

func TestOrDiscard(t *testing.T) {
	assert.Equal(t, Discard, OrDiscard(nil))
	r := &Recorder{}
	assert.Same(t, r, OrDiscard(r))
}
