package directive

import (
	"strings"

	"github.com/teranos/gramlink/errors"
)

// Parse reads a directive in key=value form, as produced by Directive.String.
func Parse(s string) (Directive, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || value == "" {
		return Directive{}, errors.Newf("malformed directive %q", s)
	}
	switch key {
	case KeyRerunIfChanged:
	case KeyLinkSearch, KeyLinkLib:
		if kind, rest, ok := strings.Cut(value, "="); !ok || kind == "" || rest == "" {
			return Directive{}, errors.Newf("malformed %s value %q (want kind=value)", key, value)
		}
	default:
		return Directive{}, errors.Newf("unknown directive key %q", key)
	}
	return Directive{Key: key, Value: value}, nil
}

// Replay sends previously recorded directives to e in order.
func Replay(e Emitter, ds []Directive) {
	for _, d := range ds {
		switch d.Key {
		case KeyRerunIfChanged:
			e.RerunIfChanged(d.Value)
		case KeyLinkSearch:
			kind, dir, _ := strings.Cut(d.Value, "=")
			e.LinkSearch(kind, dir)
		case KeyLinkLib:
			kind, name, _ := strings.Cut(d.Value, "=")
			e.LinkLib(kind, name)
		}
	}
}
