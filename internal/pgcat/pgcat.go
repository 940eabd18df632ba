// Package pgcat backs gcache.Cache and labelcat.Catalog with a
// PostgreSQL store over database/sql + lib/pq, the same driver and
// connection-bootstrap shape as internal/model/age_graph.go's
// NewAGEClient/initializeAGE. Where the teacher kept one table per
// label under a dedicated AGE graph schema, this adapter keeps two
// fixed tables (vertices, edges) plus a labels table, since the
// transformer never needs per-label physical layout — only the
// (id, label, properties) / (id, start, end, label, properties) shape
// gcache.Cache and labelcat.Catalog expose.
package pgcat

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"cyquery/internal/bdm"
	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache"
	"cyquery/internal/graph"
	"cyquery/internal/labelcat"
)

// Store wraps a PostgreSQL connection pool and implements both
// gcache.Cache and labelcat.Catalog, exactly as internal/model's three
// backends each implement a single combined client type.
type Store struct {
	db        *sql.DB
	graphName string
}

var (
	_ gcache.Cache     = (*Store)(nil)
	_ labelcat.Catalog = (*Store)(nil)
)

// Config is the connection-string material pgcat needs; callers build
// this from config.Postgres (internal/config) to keep pgcat itself
// free of env-var knowledge, unlike the teacher's NewAGEClient which
// read os.Getenv directly.
type Config struct {
	Host, Port, User, Pass, DB string
	GraphName                 string
}

// Open connects to PostgreSQL and ensures the backing schema exists,
// mirroring NewAGEClient's connect-then-initialize sequence.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.DB)
	if cfg.Pass != "" {
		connStr += fmt.Sprintf(" password=%s", cfg.Pass)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("pgcat: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgcat: ping database: %w", err)
	}

	s := &Store{db: db, graphName: cfg.GraphName}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgcat: ensure schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// ensureSchema creates the labels/vertices/edges tables for this
// store's graph namespace if they don't already exist, the same
// CREATE-IF-NOT-EXISTS idempotence NewAGEClient.initializeAGE uses for
// the AGE extension and graph row.
func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cyquery_labels (
			graph_name text NOT NULL,
			id         bigint NOT NULL,
			name       text NOT NULL,
			kind       smallint NOT NULL,
			PRIMARY KEY (graph_name, id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS cyquery_labels_name_idx
			ON cyquery_labels (graph_name, name)`,
		`CREATE TABLE IF NOT EXISTS cyquery_vertices (
			graph_name text NOT NULL,
			id         bigint NOT NULL,
			label_id   bigint NOT NULL,
			properties jsonb NOT NULL DEFAULT '{}',
			PRIMARY KEY (graph_name, id)
		)`,
		`CREATE TABLE IF NOT EXISTS cyquery_edges (
			graph_name text NOT NULL,
			id         bigint NOT NULL,
			start_id   bigint NOT NULL,
			end_id     bigint NOT NULL,
			label_id   bigint NOT NULL,
			properties jsonb NOT NULL DEFAULT '{}',
			PRIMARY KEY (graph_name, id)
		)`,
		`CREATE INDEX IF NOT EXISTS cyquery_edges_start_idx ON cyquery_edges (graph_name, start_id)`,
		`CREATE INDEX IF NOT EXISTS cyquery_edges_end_idx ON cyquery_edges (graph_name, end_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// VertexByID implements gcache.Cache.
func (s *Store) VertexByID(ctx context.Context, id graph.GraphID) (graph.Vertex, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT label_id, properties FROM cyquery_vertices WHERE graph_name = $1 AND id = $2`,
		s.graphName, int64(id))

	var labelID int64
	var propsJSON []byte
	if err := row.Scan(&labelID, &propsJSON); err != nil {
		if err == sql.ErrNoRows {
			return graph.Vertex{}, cqlerr.New(cqlerr.NotFound, "vertex %d not found", id)
		}
		return graph.Vertex{}, fmt.Errorf("pgcat: scan vertex %d: %w", id, err)
	}
	props, err := bdm.FromJSON(propsJSON)
	if err != nil {
		return graph.Vertex{}, err
	}
	return graph.NewVertex(id, graph.LabelID(labelID), props), nil
}

// EdgeByID implements gcache.Cache.
func (s *Store) EdgeByID(ctx context.Context, id graph.GraphID) (graph.Edge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT start_id, end_id, label_id, properties FROM cyquery_edges WHERE graph_name = $1 AND id = $2`,
		s.graphName, int64(id))

	var start, end, labelID int64
	var propsJSON []byte
	if err := row.Scan(&start, &end, &labelID, &propsJSON); err != nil {
		if err == sql.ErrNoRows {
			return graph.Edge{}, cqlerr.New(cqlerr.NotFound, "edge %d not found", id)
		}
		return graph.Edge{}, fmt.Errorf("pgcat: scan edge %d: %w", id, err)
	}
	props, err := bdm.FromJSON(propsJSON)
	if err != nil {
		return graph.Edge{}, err
	}
	return graph.NewEdge(id, graph.GraphID(start), graph.GraphID(end), graph.LabelID(labelID), props), nil
}

// Adjacency implements gcache.Cache. dir selects which endpoint column
// the lookup matches; AdjSelf additionally requires start == end so a
// self-loop is never double-counted against AdjOut/AdjIn, the same
// disjoint-direction invariant internal/gcache/fake and internal/vle
// rely on.
func (s *Store) Adjacency(ctx context.Context, v graph.GraphID, dir gcache.AdjacencyDirection, labelID graph.LabelID) ([]graph.Edge, error) {
	query := `SELECT id, start_id, end_id, label_id, properties FROM cyquery_edges WHERE graph_name = $1 AND `
	switch dir {
	case gcache.AdjOut:
		query += `start_id = $2 AND start_id <> end_id`
	case gcache.AdjIn:
		query += `end_id = $2 AND start_id <> end_id`
	case gcache.AdjSelf:
		query += `start_id = $2 AND start_id = end_id`
	default:
		return nil, fmt.Errorf("pgcat: unknown adjacency direction %d", dir)
	}
	args := []any{s.graphName, int64(v)}
	if labelID != 0 {
		query += ` AND label_id = $3`
		args = append(args, int64(labelID))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgcat: query adjacency: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var id, start, end, lbl int64
		var propsJSON []byte
		if err := rows.Scan(&id, &start, &end, &lbl, &propsJSON); err != nil {
			return nil, fmt.Errorf("pgcat: scan adjacency row: %w", err)
		}
		props, err := bdm.FromJSON(propsJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, graph.NewEdge(graph.GraphID(id), graph.GraphID(start), graph.GraphID(end), graph.LabelID(lbl), props))
	}
	return out, rows.Err()
}

// LabelByName implements labelcat.Catalog.
func (s *Store) LabelByName(ctx context.Context, name string) (labelcat.Label, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind FROM cyquery_labels WHERE graph_name = $1 AND name = $2`, s.graphName, name)
	var id int64
	var kind int16
	if err := row.Scan(&id, &kind); err != nil {
		if err == sql.ErrNoRows {
			return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label %q not found", name)
		}
		return labelcat.Label{}, fmt.Errorf("pgcat: scan label %q: %w", name, err)
	}
	return labelcat.Label{ID: graph.LabelID(id), Name: name, Kind: labelcat.LabelKind(kind)}, nil
}

// LabelByID implements labelcat.Catalog.
func (s *Store) LabelByID(ctx context.Context, id graph.LabelID) (labelcat.Label, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, kind FROM cyquery_labels WHERE graph_name = $1 AND id = $2`, s.graphName, int64(id))
	var name string
	var kind int16
	if err := row.Scan(&name, &kind); err != nil {
		if err == sql.ErrNoRows {
			return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label id %d not found", id)
		}
		return labelcat.Label{}, fmt.Errorf("pgcat: scan label id %d: %w", id, err)
	}
	return labelcat.Label{ID: id, Name: name, Kind: labelcat.LabelKind(kind)}, nil
}

// EnsureLabel implements labelcat.Catalog: returns the existing entry
// if name is already registered (erroring on a kind mismatch per
// spec.md §6's LabelKindMismatch), otherwise assigns the next id and
// inserts it — the generalized form of NewAGEClient.initializeAGE's
// "create the graph row if it doesn't exist yet" idempotence.
func (s *Store) EnsureLabel(ctx context.Context, name string, kind labelcat.LabelKind) (labelcat.Label, error) {
	existing, err := s.LabelByName(ctx, name)
	if err == nil {
		if existing.Kind != kind {
			return labelcat.Label{}, cqlerr.New(cqlerr.LabelKindMismatch, "label %q already registered as %v, not %v", name, existing.Kind, kind)
		}
		return existing, nil
	}
	if k, ok := cqlerr.Of(err); !ok || k != cqlerr.NotFound {
		return labelcat.Label{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO cyquery_labels (graph_name, id, name, kind)
		 VALUES ($1, COALESCE((SELECT max(id) + 1 FROM cyquery_labels WHERE graph_name = $1), 1), $2, $3)
		 ON CONFLICT (graph_name, name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		s.graphName, name, int16(kind))
	var id int64
	if err := row.Scan(&id); err != nil {
		return labelcat.Label{}, fmt.Errorf("pgcat: insert label %q: %w", name, err)
	}
	return labelcat.Label{ID: graph.LabelID(id), Name: name, Kind: kind}, nil
}
