// Package catalogue implements spec.md §3/§4.8's top two ownership levels:
// a process-wide Catalogue owning named Schemas, each of which owns the
// Entities stored under its directory. The catalogue also carries the
// engine's Configuration (spec.md §6).
package catalogue

import (
	"os"
	"sync"
	"time"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/entity"
	"github.com/cottontaildb/cottontail/pkg/logging"
	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// Schema is a named set of entities stored under one directory.
type Schema struct {
	name string
	dir  primitives.Filepath
	id   primitives.FileID

	lockTimeout time.Duration

	mu       sync.RWMutex
	entities map[string]*entity.Entity
}

func openSchema(root primitives.Filepath, name string, lockTimeout time.Duration) (*Schema, error) {
	dir := root.Join(name)
	if err := os.MkdirAll(string(dir), 0o755); err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "mkdir", err)
	}

	s := &Schema{
		name:        name,
		dir:         dir,
		id:          primitives.NewFileID(),
		lockTimeout: lockTimeout,
		entities:    map[string]*entity.Entity{},
	}

	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "readdir", err)
	}
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) <= len("entity_") || e.Name()[:len("entity_")] != "entity_" {
			continue
		}
		entityName := e.Name()[len("entity_"):]
		ent, err := entity.Open(dir, entityName, nil, lockTimeout)
		if err != nil {
			s.closeOpenedSoFar()
			return nil, err
		}
		s.entities[entityName] = ent
	}

	return s, nil
}

func (s *Schema) closeOpenedSoFar() {
	for _, e := range s.entities {
		e.Close()
	}
}

// Name returns the schema's name.
func (s *Schema) Name() string { return s.name }

// CreateEntity creates and registers a new entity with the given columns.
func (s *Schema) CreateEntity(name string, columns []entity.ColumnDef) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[name]; exists {
		return nil, dberrors.New(dberrors.Database, "already-exists", "entity "+name+" already exists")
	}

	logging.WithEntity(s.name + "." + name).Info("creating entity", "columns", len(columns))
	ent, err := entity.Open(s.dir, name, columns, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	s.entities[name] = ent
	return ent, nil
}

// DropEntity closes and permanently removes the named entity.
func (s *Schema) DropEntity(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entities[name]
	if !ok {
		return dberrors.New(dberrors.Database, "does-not-exist", "entity "+name+" does not exist")
	}
	if err := ent.Close(); err != nil {
		return err
	}
	delete(s.entities, name)
	return os.RemoveAll(string(s.dir.Join("entity_" + name)))
}

// Entity returns the named entity, or false if the schema has none by
// that name.
func (s *Schema) Entity(name string) (*entity.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[name]
	return e, ok
}

// ListEntities returns the names of every entity in the schema.
func (s *Schema) ListEntities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	return names
}

func (s *Schema) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, e := range s.entities {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
