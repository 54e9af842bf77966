// Package generatortest provides a Generator that writes canned output
// trees instead of running the external tool.
package generatortest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/teranos/gramlink/directive"
	"github.com/teranos/gramlink/generator"
)

// Fake writes Files below the request's output directory, then classifies
// that directory exactly as the real tool's output is classified.
type Fake struct {
	// Files maps slash-separated relative paths to contents.
	Files map[string]string
	// Err, when set, is returned instead of writing anything.
	Err error
	// RuntimeIncludeDirs is copied into every produced set.
	RuntimeIncludeDirs []string
	// Emitter receives the grammar files as rebuild triggers.
	Emitter directive.Emitter

	mu       sync.Mutex
	requests []generator.Request
}

// Generate implements generator.Generator.
func (f *Fake) Generate(ctx context.Context, req generator.Request) (*generator.ArtifactSet, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	emitter := directive.OrDiscard(f.Emitter)
	for _, file := range req.GrammarFiles {
		emitter.RerunIfChanged(file)
	}
	if f.Err != nil {
		return nil, f.Err
	}

	out := req.ResolvedOutDir()
	names := make([]string, 0, len(f.Files))
	for name := range f.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		full := filepath.Join(out, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return nil, &generator.GenerateError{Kind: generator.KindRun, Err: err}
		}
		if err := os.WriteFile(full, []byte(f.Files[name]), 0644); err != nil {
			return nil, &generator.GenerateError{Kind: generator.KindRun, Err: err}
		}
	}

	set, err := generator.Gather(out, f.RuntimeIncludeDirs)
	if err != nil {
		return nil, &generator.GenerateError{Kind: generator.KindGather, Err: err}
	}
	return set, nil
}

// Requests returns every request received, in order.
func (f *Fake) Requests() []generator.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generator.Request(nil), f.requests...)
}

// JSONTree is the file layout the C++ target emits for a grammar named
// JSON with listeners enabled.
func JSONTree() map[string]string {
	return map[string]string{
		"JSON.interp":          "",
		"JSON.tokens":          "",
		"JSONLexer.interp":     "",
		"JSONLexer.tokens":     "",
		"JSONLexer.h":          "#pragma once\nclass JSONLexer {};\n",
		"JSONLexer.cpp":        "#include \"JSONLexer.h\"\n",
		"JSONParser.h":         "#pragma once\nclass JSONParser {};\n",
		"JSONParser.cpp":       "#include \"JSONParser.h\"\n",
		"JSONListener.h":       "#pragma once\nclass JSONListener {};\n",
		"JSONListener.cpp":     "#include \"JSONListener.h\"\n",
		"JSONBaseListener.h":   "#pragma once\nclass JSONBaseListener {};\n",
		"JSONBaseListener.cpp": "#include \"JSONBaseListener.h\"\n",
	}
}
