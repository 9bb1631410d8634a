package catalogue

import (
	"time"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// MemoryConfig controls the page size and mapping strategy the storage
// layer uses for every file it opens.
type MemoryConfig struct {
	// DataPageShift is the bit shift defining the page size (default 12,
	// i.e. 4096 bytes, matching pkg/storage/page.Size).
	DataPageShift uint
	// ForceUnmapMappedFiles disables any memory-mapped I/O path a disk
	// manager might otherwise prefer, forcing plain read/write syscalls.
	ForceUnmapMappedFiles bool
}

// ExecutionConfig sizes the worker pool a parallel scan draws from.
type ExecutionConfig struct {
	CoreThreads   int
	MaxThreads    int
	KeepAliveTime time.Duration
	QueueSize     int
}

// ServerConfig carries the gRPC front-end's listen address and optional
// TLS material. Constructing and running that front-end is out of scope;
// this struct only exists so Configuration can round-trip it.
type ServerConfig struct {
	Port        int
	MessageSize int
	CertFile    string
	PrivateKey  string
}

// TLSEnabled reports whether both halves of a TLS keypair are present.
func (s ServerConfig) TLSEnabled() bool {
	return s.CertFile != "" && s.PrivateKey != ""
}

// Configuration is the catalogue's process-wide configuration: where it
// stores data, how long an operation waits for a file lock, and the sizing
// of the memory, execution and server subsystems.
type Configuration struct {
	Root        primitives.Filepath
	LockTimeout time.Duration

	Memory    MemoryConfig
	Execution ExecutionConfig
	Server    ServerConfig
}

// DefaultConfiguration returns the recognised option defaults (spec.md §6)
// rooted at root.
func DefaultConfiguration(root primitives.Filepath) Configuration {
	return Configuration{
		Root:        root,
		LockTimeout: 5 * time.Second,
		Memory: MemoryConfig{
			DataPageShift: 12,
		},
		Execution: ExecutionConfig{
			CoreThreads:   4,
			MaxThreads:    16,
			KeepAliveTime: 60 * time.Second,
			QueueSize:     256,
		},
		Server: ServerConfig{
			Port:        1865,
			MessageSize: 524288,
		},
	}
}
