// Package router decides which registered journal document is the target of
// date-tree operations.
package router

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// Entry is one registered journal document.
type Entry struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// Registry is the ordered list of journal documents. An empty registry means
// single-file mode.
type Registry []Entry

// Paths returns the registered paths in order.
func (r Registry) Paths() []string {
	out := make([]string, len(r))
	for i, e := range r {
		out[i] = e.Path
	}
	return out
}

// Lookup returns the entry whose name or normalized path matches s.
func (r Registry) Lookup(s string) (Entry, bool) {
	for _, e := range r {
		if e.Name == s {
			return e, true
		}
	}
	norm := Normalize(s)
	for _, e := range r {
		if Normalize(e.Path) == norm {
			return e, true
		}
	}
	return Entry{}, false
}

// ResolveActiveFile picks the document to operate on: override wins, then
// the default path in single-file mode, then the session's active file when
// it is registered, then the first registered file.
func ResolveActiveFile(registry Registry, activeSessionFile, override, defaultPath string) string {
	if override != "" {
		return override
	}
	if len(registry) == 0 {
		return defaultPath
	}
	if activeSessionFile != "" {
		active := Normalize(activeSessionFile)
		for _, e := range registry {
			if Normalize(e.Path) == active {
				return e.Path
			}
		}
	}
	return registry[0].Path
}

// Normalize expands a leading ~ and returns a clean absolute path. Paths that
// cannot be made absolute are only cleaned.
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
