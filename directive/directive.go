// Package directive carries declarations from the pipeline to the build
// that invoked it: which files should trigger a rebuild when they change,
// and how the produced libraries must be linked.
//
// Directives are declarative. Nothing here checks timestamps or enforces a
// rebuild; the enclosing build (or the stamp and watch packages) acts on
// them.
package directive

import (
	"fmt"
	"io"
	"sync"
)

// Directive keys
const (
	KeyRerunIfChanged = "rerun-if-changed"
	KeyLinkSearch     = "link-search"
	KeyLinkLib        = "link-lib"
)

// Link kinds used in link-search and link-lib values
const (
	SearchNative = "native"
	LibStatic    = "static"
	LibDylib     = "dylib"
)

// DefaultPrefix starts every directive line written by Writer.
const DefaultPrefix = "gramlink:"

// Directive is a single key=value declaration.
type Directive struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func (d Directive) String() string {
	return d.Key + "=" + d.Value
}

// Emitter receives declarations for the enclosing build.
type Emitter interface {
	RerunIfChanged(path string)
	LinkSearch(kind, dir string)
	LinkLib(kind, name string)
}

// Writer prints each directive on its own line as <prefix><key>=<value>.
type Writer struct {
	W      io.Writer
	Prefix string

	mu sync.Mutex
}

// NewWriter returns a Writer using DefaultPrefix.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w, Prefix: DefaultPrefix}
}

func (w *Writer) emit(d Directive) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.W, "%s%s\n", w.Prefix, d)
}

func (w *Writer) RerunIfChanged(path string) {
	w.emit(Directive{Key: KeyRerunIfChanged, Value: path})
}

func (w *Writer) LinkSearch(kind, dir string) {
	w.emit(Directive{Key: KeyLinkSearch, Value: kind + "=" + dir})
}

func (w *Writer) LinkLib(kind, name string) {
	w.emit(Directive{Key: KeyLinkLib, Value: kind + "=" + name})
}

// Recorder keeps every directive in memory, in emission order.
type Recorder struct {
	mu   sync.Mutex
	list []Directive
}

func (r *Recorder) add(d Directive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, d)
}

func (r *Recorder) RerunIfChanged(path string) {
	r.add(Directive{Key: KeyRerunIfChanged, Value: path})
}

func (r *Recorder) LinkSearch(kind, dir string) {
	r.add(Directive{Key: KeyLinkSearch, Value: kind + "=" + dir})
}

func (r *Recorder) LinkLib(kind, name string) {
	r.add(Directive{Key: KeyLinkLib, Value: kind + "=" + name})
}

// Directives returns a copy of everything recorded so far.
func (r *Recorder) Directives() []Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Directive(nil), r.list...)
}

// Triggers returns the distinct rerun-if-changed paths in first-seen order.
func (r *Recorder) Triggers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.list {
		if d.Key != KeyRerunIfChanged || seen[d.Value] {
			continue
		}
		seen[d.Value] = true
		out = append(out, d.Value)
	}
	return out
}

// Reset drops everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = nil
}

type tee []Emitter

// Tee returns an Emitter that forwards every directive to all of emitters.
func Tee(emitters ...Emitter) Emitter {
	return tee(emitters)
}

func (t tee) RerunIfChanged(path string) {
	for _, e := range t {
		e.RerunIfChanged(path)
	}
}

func (t tee) LinkSearch(kind, dir string) {
	for _, e := range t {
		e.LinkSearch(kind, dir)
	}
}

func (t tee) LinkLib(kind, name string) {
	for _, e := range t {
		e.LinkLib(kind, name)
	}
}

type discard struct{}

func (discard) RerunIfChanged(string)     {}
func (discard) LinkSearch(string, string) {}
func (discard) LinkLib(string, string)    {}

// Discard drops every directive.
var Discard Emitter = discard{}

// OrDiscard returns e, or Discard when e is nil.
func OrDiscard(e Emitter) Emitter {
	if e == nil {
		return Discard
	}
	return e
}
