// Package labelcat declares the label catalog: the mapping between
// Cypher label names and the (LabelID, kind) pairs the clause
// transformer needs to build label-filtered scans and to validate that
// a pattern's declared label matches the kind (vertex vs edge) it is
// used as. Grounded on cypher_clause.c's label-to-relation resolution
// and spec.md §6.
package labelcat

import (
	"context"

	"cyquery/internal/graph"
)

// LabelKind distinguishes vertex labels from edge labels; a name may
// be registered as only one kind, and using it as the other is
// cqlerr.LabelKindMismatch.
type LabelKind uint8

const (
	LabelVertex LabelKind = iota
	LabelEdge
)

// Label is one catalog entry.
type Label struct {
	ID   graph.LabelID
	Name string
	Kind LabelKind
}

// Catalog is the read/ensure surface the transformer needs. EnsureLabel
// is used by CREATE/MERGE when a pattern references a label that may
// not exist yet; it is otherwise a pure lookup.
type Catalog interface {
	LabelByName(ctx context.Context, name string) (Label, error)
	LabelByID(ctx context.Context, id graph.LabelID) (Label, error)
	EnsureLabel(ctx context.Context, name string, kind LabelKind) (Label, error)
}
