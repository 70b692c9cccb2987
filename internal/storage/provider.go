// Package storage defines the journal file-system abstraction.
package storage

import "time"

// FileInfo is the lightweight description of one journal document.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for journal file operations. Paths are relative
// to the journal root.
type Provider interface {
	// List returns metadata for every journal document under dir.
	List(dir string) ([]FileInfo, error)
	// Stat describes the document at path. A missing file yields an error
	// matching fs.ErrNotExist.
	Stat(path string) (FileInfo, error)
	// Read returns the raw bytes of the document at path. A missing file
	// yields an error matching fs.ErrNotExist.
	Read(path string) ([]byte, error)
	// Write atomically replaces the document at path with content.
	Write(path string, content []byte) error
	// Root returns the absolute journal directory.
	Root() string
	// Extension returns the suffix journal documents carry, e.g. ".org".
	Extension() string
}
