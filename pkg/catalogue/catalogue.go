package catalogue

import (
	"os"
	"sync"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/logging"
)

// Catalogue is the process-wide root referencing every schema. It owns the
// engine Configuration and is created once at startup, closed at shutdown.
type Catalogue struct {
	config Configuration

	mu      sync.RWMutex
	schemas map[string]*Schema
}

// Open opens (creating if necessary) the catalogue rooted at
// config.Root, loading every schema directory already present.
func Open(config Configuration) (*Catalogue, error) {
	if err := os.MkdirAll(string(config.Root), 0o755); err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "mkdir", err)
	}

	c := &Catalogue{config: config, schemas: map[string]*Schema{}}

	entries, err := os.ReadDir(string(config.Root))
	if err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "readdir", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := openSchema(config.Root, e.Name(), config.LockTimeout)
		if err != nil {
			c.closeOpenedSoFar()
			return nil, err
		}
		c.schemas[e.Name()] = s
	}

	logging.WithComponent("catalogue").Info("opened", "root", string(config.Root), "schemas", len(c.schemas))
	return c, nil
}

func (c *Catalogue) closeOpenedSoFar() {
	for _, s := range c.schemas {
		s.close()
	}
}

// Configuration returns the catalogue's configuration.
func (c *Catalogue) Configuration() Configuration { return c.config }

// CreateSchema creates and registers a new, empty schema.
func (c *Catalogue) CreateSchema(name string) (*Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.schemas[name]; exists {
		return nil, dberrors.New(dberrors.Database, "already-exists", "schema "+name+" already exists")
	}
	s, err := openSchema(c.config.Root, name, c.config.LockTimeout)
	if err != nil {
		return nil, err
	}
	c.schemas[name] = s
	return s, nil
}

// DropSchema closes and permanently removes the named schema, including
// every entity it owns.
func (c *Catalogue) DropSchema(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.schemas[name]
	if !ok {
		return dberrors.New(dberrors.Database, "does-not-exist", "schema "+name+" does not exist")
	}
	if err := s.close(); err != nil {
		return err
	}
	delete(c.schemas, name)
	return os.RemoveAll(string(c.config.Root.Join(name)))
}

// Schema returns the named schema, or false if none exists by that name.
func (c *Catalogue) Schema(name string) (*Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[name]
	return s, ok
}

// ListSchemas returns the names of every schema the catalogue owns.
func (c *Catalogue) ListSchemas() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	return names
}

// Close closes every schema (and transitively every entity), in arbitrary
// order, collecting the first error encountered.
func (c *Catalogue) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, s := range c.schemas {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
