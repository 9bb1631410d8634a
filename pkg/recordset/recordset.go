// Package recordset implements the in-memory, schema-typed bag of rows
// returned by an index filter, scan, or projection (spec.md Glossary).
package recordset

import (
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/values"
)

// Row is one record: a tuple id plus one value per selected column,
// addressed by column name.
type Row struct {
	TupleID primitives.TupleID
	Values  map[string]values.Value
}

// Recordset is an ordered sequence of Rows sharing a declared column list.
type Recordset struct {
	Columns []string
	Rows    []Row
}

// New creates an empty Recordset over the given columns.
func New(columns ...string) *Recordset {
	return &Recordset{Columns: columns}
}

// Append adds a row to the end of the recordset.
func (r *Recordset) Append(row Row) {
	r.Rows = append(r.Rows, row)
}

// Len reports the number of rows.
func (r *Recordset) Len() int { return len(r.Rows) }
