package page

import (
	"fmt"
	"os"
	"sync"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// BaseFile provides thread-safe, page-granular I/O over a single on-disk
// file. It knows nothing about file headers, locking, or WAL; those are
// layered on top by the disk manager. BaseFile's only job is translating a
// PageID to a byte offset and reading/writing exactly one Size-byte region
// at a time.
type BaseFile struct {
	file     *os.File
	fileID   primitives.FileID
	mutex    sync.RWMutex
	filePath primitives.Filepath
}

// Open opens (creating if necessary) the file at filePath for page I/O.
func Open(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath == "" {
		return nil, fmt.Errorf("page: file path cannot be empty")
	}

	f, err := os.OpenFile(string(filePath), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("page: opening %s: %w", filePath, err)
	}

	return &BaseFile{
		file:     f,
		fileID:   filePath.Hash(),
		filePath: filePath,
	}, nil
}

func (bf *BaseFile) ID() primitives.FileID     { return bf.fileID }
func (bf *BaseFile) Path() primitives.Filepath { return bf.filePath }
func (bf *BaseFile) Handle() *os.File          { return bf.file }

// NumPages returns the number of Size-byte pages currently in the file,
// rounding up on a partial trailing page.
func (bf *BaseFile) NumPages() (uint64, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("page: file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("page: stat: %w", err)
	}

	n := uint64(info.Size()) / Size
	if uint64(info.Size())%Size != 0 {
		n++
	}
	return n, nil
}

// Read fills and returns a Size-byte buffer from the page at id.
func (bf *BaseFile) Read(id primitives.PageID) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return nil, fmt.Errorf("page: file is closed")
	}

	buf := make([]byte, Size)
	if _, err := bf.file.ReadAt(buf, Offset(id)); err != nil {
		return nil, fmt.Errorf("page: read %s: %w", id, err)
	}
	return buf, nil
}

// Write persists exactly one Size-byte page at id and fsyncs the file.
func (bf *BaseFile) Write(id primitives.PageID, data []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("page: file is closed")
	}
	if len(data) != Size {
		return fmt.Errorf("page: write %s: want %d bytes, got %d", id, Size, len(data))
	}

	if _, err := bf.file.WriteAt(data, Offset(id)); err != nil {
		return fmt.Errorf("page: write %s: %w", id, err)
	}
	return bf.file.Sync()
}

// Allocate atomically reserves the next free PageID by extending the file
// with one zero-filled page and returns the id assigned to it.
func (bf *BaseFile) Allocate() (primitives.PageID, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return 0, fmt.Errorf("page: file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("page: stat: %w", err)
	}

	n := uint64(info.Size()) / Size
	if uint64(info.Size())%Size != 0 {
		n++
	}
	id := primitives.PageID(n)

	zero := make([]byte, Size)
	if _, err := bf.file.WriteAt(zero, Offset(id)); err != nil {
		return 0, fmt.Errorf("page: allocate %s: %w", id, err)
	}
	if err := bf.file.Sync(); err != nil {
		return 0, fmt.Errorf("page: allocate %s: sync: %w", id, err)
	}

	return id, nil
}

func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return nil
	}
	err := bf.file.Close()
	bf.file = nil
	return err
}
