package page

import "github.com/cottontaildb/cottontail/pkg/primitives"

// InBounds reports whether id addresses a page that the file, per its
// header's TotalPages, actually contains. PageID 0 (the header) and ids
// beyond TotalPages-1 are out of bounds for data reads.
func InBounds(id primitives.PageID, header *FileHeader) bool {
	return id.IsValid() && uint64(id) < header.TotalPages
}
