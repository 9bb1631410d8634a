package primitives

import (
	"hash/fnv"
	"path/filepath"
)

// Filepath is a type-safe wrapper around on-disk paths, carrying a stable
// FileID derived from an FNV-1a hash so callers never need to re-derive one
// from a raw string.
type Filepath string

// Hash returns a deterministic FileID for this path. Two Filepath values
// with the same string always hash to the same FileID.
func (f Filepath) Hash() FileID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(f))
	return FileID(h.Sum64())
}

func (f Filepath) Dir() string {
	return filepath.Dir(string(f))
}

func (f Filepath) Join(elem ...string) Filepath {
	parts := append([]string{string(f)}, elem...)
	return Filepath(filepath.Join(parts...))
}

func (f Filepath) String() string {
	return string(f)
}
