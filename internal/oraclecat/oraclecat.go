// Package oraclecat backs gcache.Cache and labelcat.Catalog with
// Oracle over database/sql + godror, the teacher's third storage
// backend (internal/model/oracle_graph.go's OracleGraphClient). Like
// internal/pgcat it keeps a fixed three-table shape rather than the
// teacher's one-table-per-entity-kind layout, since the cache
// interfaces only need (id, label, properties)/(id, start, end, label,
// properties) addressing.
package oraclecat

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/godror/godror"

	"cyquery/internal/bdm"
	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache"
	"cyquery/internal/graph"
	"cyquery/internal/labelcat"
)

// Store wraps an Oracle connection pool and implements both
// gcache.Cache and labelcat.Catalog.
type Store struct {
	db        *sql.DB
	graphName string
}

var (
	_ gcache.Cache     = (*Store)(nil)
	_ labelcat.Catalog = (*Store)(nil)
)

// Config is the connection material oraclecat needs; built from
// config.Oracle (internal/config) by callers.
type Config struct {
	User, Pass, ConnectString, GraphName string
}

// Open connects to Oracle and ensures the backing tables exist,
// mirroring NewOracleGraphClient's connect-then-initializeGraph
// sequence, including its SetMaxOpenConns/SetMaxIdleConns tuning.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	connStr := fmt.Sprintf(`user="%s" password="%s" connectString="%s"`, cfg.User, cfg.Pass, cfg.ConnectString)

	db, err := sql.Open("godror", connStr)
	if err != nil {
		return nil, fmt.Errorf("oraclecat: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("oraclecat: ping database: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)

	s := &Store{db: db, graphName: cfg.GraphName}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("oraclecat: ensure schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_tables WHERE table_name = :1`, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ensureSchema creates the labels/vertices/edges tables if absent, the
// godror generalization of initializeGraph's USER_PROPERTY_GRAPHS
// existence check followed by a batch of CREATE TABLE statements.
func (s *Store) ensureSchema(ctx context.Context) error {
	labels := fmt.Sprintf("%s_LABELS", s.graphName)
	vertices := fmt.Sprintf("%s_VERTICES", s.graphName)
	edges := fmt.Sprintf("%s_EDGES", s.graphName)

	if ok, err := s.tableExists(ctx, labels); err != nil {
		return err
	} else if !ok {
		stmt := fmt.Sprintf(`CREATE TABLE %s (
			ID NUMBER PRIMARY KEY,
			NAME VARCHAR2(255) UNIQUE NOT NULL,
			KIND NUMBER(1) NOT NULL
		)`, labels)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if ok, err := s.tableExists(ctx, vertices); err != nil {
		return err
	} else if !ok {
		stmt := fmt.Sprintf(`CREATE TABLE %s (
			ID NUMBER PRIMARY KEY,
			LABEL_ID NUMBER NOT NULL,
			PROPERTIES CLOB
		)`, vertices)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if ok, err := s.tableExists(ctx, edges); err != nil {
		return err
	} else if !ok {
		stmt := fmt.Sprintf(`CREATE TABLE %s (
			ID NUMBER PRIMARY KEY,
			START_ID NUMBER NOT NULL,
			END_ID NUMBER NOT NULL,
			LABEL_ID NUMBER NOT NULL,
			PROPERTIES CLOB
		)`, edges)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) vertexTable() string { return fmt.Sprintf("%s_VERTICES", s.graphName) }
func (s *Store) edgeTable() string   { return fmt.Sprintf("%s_EDGES", s.graphName) }
func (s *Store) labelTable() string  { return fmt.Sprintf("%s_LABELS", s.graphName) }

// VertexByID implements gcache.Cache.
func (s *Store) VertexByID(ctx context.Context, id graph.GraphID) (graph.Vertex, error) {
	query := fmt.Sprintf(`SELECT LABEL_ID, PROPERTIES FROM %s WHERE ID = :1`, s.vertexTable())
	row := s.db.QueryRowContext(ctx, query, int64(id))

	var labelID int64
	var propsClob sql.NullString
	if err := row.Scan(&labelID, &propsClob); err != nil {
		if err == sql.ErrNoRows {
			return graph.Vertex{}, cqlerr.New(cqlerr.NotFound, "vertex %d not found", id)
		}
		return graph.Vertex{}, fmt.Errorf("oraclecat: scan vertex %d: %w", id, err)
	}
	props, err := bdm.FromJSON([]byte(propsClob.String))
	if err != nil {
		return graph.Vertex{}, err
	}
	return graph.NewVertex(id, graph.LabelID(labelID), props), nil
}

// EdgeByID implements gcache.Cache.
func (s *Store) EdgeByID(ctx context.Context, id graph.GraphID) (graph.Edge, error) {
	query := fmt.Sprintf(`SELECT START_ID, END_ID, LABEL_ID, PROPERTIES FROM %s WHERE ID = :1`, s.edgeTable())
	row := s.db.QueryRowContext(ctx, query, int64(id))

	var start, end, labelID int64
	var propsClob sql.NullString
	if err := row.Scan(&start, &end, &labelID, &propsClob); err != nil {
		if err == sql.ErrNoRows {
			return graph.Edge{}, cqlerr.New(cqlerr.NotFound, "edge %d not found", id)
		}
		return graph.Edge{}, fmt.Errorf("oraclecat: scan edge %d: %w", id, err)
	}
	props, err := bdm.FromJSON([]byte(propsClob.String))
	if err != nil {
		return graph.Edge{}, err
	}
	return graph.NewEdge(id, graph.GraphID(start), graph.GraphID(end), graph.LabelID(labelID), props), nil
}

// Adjacency implements gcache.Cache, using Oracle's :N positional bind
// style exactly as oracle_graph.go's MERGE statements do.
func (s *Store) Adjacency(ctx context.Context, v graph.GraphID, dir gcache.AdjacencyDirection, labelID graph.LabelID) ([]graph.Edge, error) {
	query := fmt.Sprintf(`SELECT ID, START_ID, END_ID, LABEL_ID, PROPERTIES FROM %s WHERE `, s.edgeTable())
	switch dir {
	case gcache.AdjOut:
		query += `START_ID = :1 AND START_ID <> END_ID`
	case gcache.AdjIn:
		query += `END_ID = :1 AND START_ID <> END_ID`
	case gcache.AdjSelf:
		query += `START_ID = :1 AND START_ID = END_ID`
	default:
		return nil, fmt.Errorf("oraclecat: unknown adjacency direction %d", dir)
	}
	args := []any{int64(v)}
	if labelID != 0 {
		query += ` AND LABEL_ID = :2`
		args = append(args, int64(labelID))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("oraclecat: query adjacency: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var id, start, end, lbl int64
		var propsClob sql.NullString
		if err := rows.Scan(&id, &start, &end, &lbl, &propsClob); err != nil {
			return nil, fmt.Errorf("oraclecat: scan adjacency row: %w", err)
		}
		props, err := bdm.FromJSON([]byte(propsClob.String))
		if err != nil {
			return nil, err
		}
		out = append(out, graph.NewEdge(graph.GraphID(id), graph.GraphID(start), graph.GraphID(end), graph.LabelID(lbl), props))
	}
	return out, rows.Err()
}

// LabelByName implements labelcat.Catalog.
func (s *Store) LabelByName(ctx context.Context, name string) (labelcat.Label, error) {
	query := fmt.Sprintf(`SELECT ID, KIND FROM %s WHERE NAME = :1`, s.labelTable())
	row := s.db.QueryRowContext(ctx, query, name)
	var id int64
	var kind int64
	if err := row.Scan(&id, &kind); err != nil {
		if err == sql.ErrNoRows {
			return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label %q not found", name)
		}
		return labelcat.Label{}, fmt.Errorf("oraclecat: scan label %q: %w", name, err)
	}
	return labelcat.Label{ID: graph.LabelID(id), Name: name, Kind: labelcat.LabelKind(kind)}, nil
}

// LabelByID implements labelcat.Catalog.
func (s *Store) LabelByID(ctx context.Context, id graph.LabelID) (labelcat.Label, error) {
	query := fmt.Sprintf(`SELECT NAME, KIND FROM %s WHERE ID = :1`, s.labelTable())
	row := s.db.QueryRowContext(ctx, query, int64(id))
	var name string
	var kind int64
	if err := row.Scan(&name, &kind); err != nil {
		if err == sql.ErrNoRows {
			return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label id %d not found", id)
		}
		return labelcat.Label{}, fmt.Errorf("oraclecat: scan label id %d: %w", id, err)
	}
	return labelcat.Label{ID: id, Name: name, Kind: labelcat.LabelKind(kind)}, nil
}

// EnsureLabel implements labelcat.Catalog, using a MERGE INTO ... USING
// DUAL statement exactly as oracle_graph.go's UpsertFile/UpsertFunction
// upsert their vertex rows, with the next id computed from the current
// max.
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

	table := s.labelTable()
	merge := fmt.Sprintf(`
		MERGE INTO %s l
		USING (SELECT :1 AS NAME, :2 AS KIND FROM DUAL) s
		ON (l.NAME = s.NAME)
		WHEN NOT MATCHED THEN
			INSERT (ID, NAME, KIND)
			VALUES ((SELECT NVL(MAX(ID), 0) + 1 FROM %s), s.NAME, s.KIND)
	`, table, table)
	if _, err := s.db.ExecContext(ctx, merge, name, int64(kind)); err != nil {
		return labelcat.Label{}, fmt.Errorf("oraclecat: merge label %q: %w", name, err)
	}
	return s.LabelByName(ctx, name)
}
