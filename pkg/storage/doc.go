// Package storage is the root of Cottontail's disk-based storage engine.
//
// Every column and every index bucket file is organised into fixed-size 4 KB
// pages that are read and written as atomic units. Page 0 of each file is
// reserved for a FileHeader carrying a format identifier, a sanity flag, and
// a CRC32C checksum; user data starts at page 1.
//
// # Sub-packages
//
//   - [github.com/cottontaildb/cottontail/pkg/storage/page]   – fixed-size
//     Page type, PageID, and the FileHeader layout shared by every file kind.
//   - [github.com/cottontaildb/cottontail/pkg/storage/disk]   – DiskManager:
//     the direct (write-through) and write-ahead-logged variants that turn
//     a path on disk into pinnable pages, with exclusive file locking.
//   - [github.com/cottontaildb/cottontail/pkg/storage/wal]    – the
//     sibling write-ahead log file used by the WAL disk manager variant.
//   - [github.com/cottontaildb/cottontail/pkg/storage/buffer] – BufferPool:
//     pinning, clock-approximated eviction, and pool-exhausted backpressure.
//
// # Page layout
//
// A file never has a partial page: Allocate always reserves a whole
// page.Size region. The header page's sanity flag is the corruption oracle —
// it is flipped to in-use on open and back to clean on orderly Close; a
// dirty restart is detected by finding it still in-use.
package storage
