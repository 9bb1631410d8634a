// Package index defines the abstract secondary-index contract (spec.md
// §4.5): the columns an index consumes and produces, the predicates it
// can service, its cost estimate, and the rebuild/incremental-update
// lifecycle a concrete index type (e.g. hash) implements.
package index

import (
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/recordset"
	"github.com/cottontaildb/cottontail/pkg/values"
)

// Type names a concrete index implementation.
type Type string

const (
	Hash Type = "HASH"
)

// Predicate is a single-column comparison an index is asked whether it can
// service and, if so, to evaluate.
type Predicate struct {
	Column string
	Op     primitives.Predicate
	Value  values.Value   // operand for Equals and the other scalar operators
	Values []values.Value // operand for In
}

// Cost is an index's estimate of what answering a Predicate will cost the
// planner, in arbitrary comparable units across disk I/O, memory touched,
// and CPU compute.
type Cost struct {
	Disk    float64
	Memory  float64
	Compute float64
}

// EventType distinguishes the three ways a row can change for the purpose
// of incremental index maintenance.
type EventType int

const (
	EventInsert EventType = iota
	EventUpdate
	EventDelete
)

// Event is one row-level change an index's Update consumes to keep itself
// in sync without a full Rebuild.
type Event struct {
	Type    EventType
	TupleID primitives.TupleID
	Old     values.Value
	New     values.Value
}

// ColumnSource is the subset of Column.Tx an index needs to drive a
// Rebuild: ascending, header-and-tombstone-skipping iteration over one
// column. Column.Tx satisfies this interface structurally.
type ColumnSource interface {
	ForEach(action func(primitives.TupleID, values.Value) error) error
}

// Index is the contract every secondary index type implements.
type Index interface {
	Name() string
	Type() Type
	// Columns lists the input columns this index is built over.
	Columns() []string
	// Produces lists the columns a successful Filter result carries.
	Produces() []string

	CanProcess(p Predicate) bool
	Cost(p Predicate) Cost
	Filter(p Predicate) (*recordset.Recordset, error)

	Rebuild(source ColumnSource) error
	Update(events []Event) error

	Close() error
}
