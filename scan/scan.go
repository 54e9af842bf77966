// Package scan walks generator output trees whose exact file names are not
// known in advance.
//
// Traversal is depth-first and pre-order: a directory is produced before any
// of its children. Entries within one directory come out in lexical order.
// The root itself is never produced, only what lies below it.
//
// A root that does not exist or is not a directory yields nothing and no
// error. Any error while listing a directory ends the whole traversal; the
// error is delivered as the final element of the sequence.
package scan

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// Entry is one filesystem entry found below a scanned root.
type Entry struct {
	fs.DirEntry

	// Path is the root joined with the entry's relative location.
	Path string
	// Depth is 1 for direct children of the root.
	Depth int
}

// Entries returns a lazy pre-order sequence over everything below root.
// Ranging over it again restarts the traversal from the filesystem.
// Symbolic links are reported but never followed.
func Entries(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return
		}
		walkDir(root, 1, yield)
	}
}

// walkDir returns false once the consumer stopped or an error was delivered.
func walkDir(dir string, depth int, yield func(Entry, error) bool) bool {
	children, err := os.ReadDir(dir)
	if err != nil {
		yield(Entry{Path: dir, Depth: depth - 1}, err)
		return false
	}
	for _, child := range children {
		e := Entry{DirEntry: child, Path: filepath.Join(dir, child.Name()), Depth: depth}
		if !yield(e, nil) {
			return false
		}
		if child.IsDir() {
			if !walkDir(e.Path, depth+1, yield) {
				return false
			}
		}
	}
	return true
}

// Walk calls fn for every entry below root in pre-order and returns the
// first listing error, if any.
func Walk(root string, fn func(Entry)) error {
	for e, err := range Entries(root) {
		if err != nil {
			return err
		}
		fn(e)
	}
	return nil
}

// Collect returns every entry below root, or the listing error.
func Collect(root string) ([]Entry, error) {
	var out []Entry
	err := Walk(root, func(e Entry) {
		out = append(out, e)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
