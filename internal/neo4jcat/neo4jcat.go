// Package neo4jcat backs gcache.Cache and labelcat.Catalog with Neo4j
// over neo4j-go-driver/v5, the teacher's second storage backend
// (internal/model/graph.go's Neo4jClient). Vertices/edges/labels are
// kept in a parallel shadow representation — :CyVertex/:CyLabel nodes
// and :CY_EDGE relationships tagged with this package's own integer ids
// — rather than mapping onto arbitrary user graph data, since
// gcache.Cache/labelcat.Catalog need a stable (GraphID, LabelID)
// addressing scheme the property graph's native node/relationship ids
// don't promise to preserve across compaction.
package neo4jcat

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"cyquery/internal/bdm"
	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache"
	"cyquery/internal/graph"
	"cyquery/internal/labelcat"
)

// Store wraps a Neo4j driver session factory and implements both
// gcache.Cache and labelcat.Catalog, mirroring Neo4jClient's single
// combined-client shape.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

var (
	_ gcache.Cache     = (*Store)(nil)
	_ labelcat.Catalog = (*Store)(nil)
)

// Config is the connection material neo4jcat needs; built from
// config.Neo4j (internal/config) by callers.
type Config struct {
	URI, User, Pass, Database string
}

// Open connects to Neo4j, mirroring NewNeo4jClient's
// neo4j.BasicAuth/neo4j.NewDriverWithContext sequence.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	auth := neo4j.BasicAuth(cfg.User, cfg.Pass, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("neo4jcat: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4jcat: verify connectivity: %w", err)
	}
	return &Store{driver: driver, database: cfg.Database}, nil
}

// Close terminates the driver connection.
func (s *Store) Close(ctx context.Context) error { return s.driver.Close(ctx) }

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
}

func (s *Store) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
}

// VertexByID implements gcache.Cache.
func (s *Store) VertexByID(ctx context.Context, id graph.GraphID) (graph.Vertex, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := `MATCH (v:CyVertex {id: $id}) RETURN v.labelId AS labelId, v.properties AS properties`
		res, err := tx.Run(ctx, cypher, map[string]any{"id": int64(id)})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, nil
		}
		record := res.Record()
		labelID, _ := record.Get("labelId")
		propsJSON, _ := record.Get("properties")
		return [2]any{labelID, propsJSON}, res.Err()
	})
	if err != nil {
		return graph.Vertex{}, fmt.Errorf("neo4jcat: query vertex %d: %w", id, err)
	}
	if result == nil {
		return graph.Vertex{}, cqlerr.New(cqlerr.NotFound, "vertex %d not found", id)
	}
	pair := result.([2]any)
	props, err := bdm.FromJSON([]byte(pair[1].(string)))
	if err != nil {
		return graph.Vertex{}, err
	}
	return graph.NewVertex(id, graph.LabelID(pair[0].(int64)), props), nil
}

// EdgeByID implements gcache.Cache.
func (s *Store) EdgeByID(ctx context.Context, id graph.GraphID) (graph.Edge, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := `MATCH (a:CyVertex)-[r:CY_EDGE {id: $id}]->(b:CyVertex)
			RETURN a.id AS startId, b.id AS endId, r.labelId AS labelId, r.properties AS properties`
		res, err := tx.Run(ctx, cypher, map[string]any{"id": int64(id)})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, nil
		}
		record := res.Record()
		start, _ := record.Get("startId")
		end, _ := record.Get("endId")
		labelID, _ := record.Get("labelId")
		propsJSON, _ := record.Get("properties")
		return [4]any{start, end, labelID, propsJSON}, res.Err()
	})
	if err != nil {
		return graph.Edge{}, fmt.Errorf("neo4jcat: query edge %d: %w", id, err)
	}
	if result == nil {
		return graph.Edge{}, cqlerr.New(cqlerr.NotFound, "edge %d not found", id)
	}
	quad := result.([4]any)
	props, err := bdm.FromJSON([]byte(quad[3].(string)))
	if err != nil {
		return graph.Edge{}, err
	}
	return graph.NewEdge(id, graph.GraphID(quad[0].(int64)), graph.GraphID(quad[1].(int64)), graph.LabelID(quad[2].(int64)), props), nil
}

// Adjacency implements gcache.Cache. The CY_EDGE relationship is always
// stored start->end regardless of Cypher direction, so direction
// selection is plain pattern-direction matching; AdjSelf additionally
// requires a.id = b.id so self-loops stay disjoint from AdjOut/AdjIn.
func (s *Store) Adjacency(ctx context.Context, v graph.GraphID, dir gcache.AdjacencyDirection, labelID graph.LabelID) ([]graph.Edge, error) {
	var pattern string
	switch dir {
	case gcache.AdjOut:
		pattern = `(a:CyVertex {id: $id})-[r:CY_EDGE]->(b:CyVertex) WHERE a.id <> b.id`
	case gcache.AdjIn:
		pattern = `(b:CyVertex)-[r:CY_EDGE]->(a:CyVertex {id: $id}) WHERE a.id <> b.id`
	case gcache.AdjSelf:
		pattern = `(a:CyVertex {id: $id})-[r:CY_EDGE]->(b:CyVertex) WHERE a.id = b.id`
	default:
		return nil, fmt.Errorf("neo4jcat: unknown adjacency direction %d", dir)
	}
	cypher := fmt.Sprintf(`MATCH %s`, pattern)
	if labelID != 0 {
		cypher += ` AND r.labelId = $labelId`
	}
	cypher += ` RETURN r.id AS id, a.id AS startId, b.id AS endId, r.labelId AS labelId, r.properties AS properties`

	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": int64(v), "labelId": int64(labelID)})
		if err != nil {
			return nil, err
		}
		var out []graph.Edge
		for res.Next(ctx) {
			record := res.Record()
			id, _ := record.Get("id")
			start, _ := record.Get("startId")
			end, _ := record.Get("endId")
			lbl, _ := record.Get("labelId")
			propsJSON, _ := record.Get("properties")
			props, err := bdm.FromJSON([]byte(propsJSON.(string)))
			if err != nil {
				return nil, err
			}
			out = append(out, graph.NewEdge(graph.GraphID(id.(int64)), graph.GraphID(start.(int64)), graph.GraphID(end.(int64)), graph.LabelID(lbl.(int64)), props))
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jcat: query adjacency: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.([]graph.Edge), nil
}

// LabelByName implements labelcat.Catalog.
func (s *Store) LabelByName(ctx context.Context, name string) (labelcat.Label, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (l:CyLabel {name: $name}) RETURN l.id AS id, l.kind AS kind`, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, nil
		}
		record := res.Record()
		id, _ := record.Get("id")
		kind, _ := record.Get("kind")
		return [2]any{id, kind}, res.Err()
	})
	if err != nil {
		return labelcat.Label{}, fmt.Errorf("neo4jcat: query label %q: %w", name, err)
	}
	if result == nil {
		return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label %q not found", name)
	}
	pair := result.([2]any)
	return labelcat.Label{ID: graph.LabelID(pair[0].(int64)), Name: name, Kind: labelcat.LabelKind(pair[1].(int64))}, nil
}

// LabelByID implements labelcat.Catalog.
func (s *Store) LabelByID(ctx context.Context, id graph.LabelID) (labelcat.Label, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (l:CyLabel {id: $id}) RETURN l.name AS name, l.kind AS kind`, map[string]any{"id": int64(id)})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, nil
		}
		record := res.Record()
		name, _ := record.Get("name")
		kind, _ := record.Get("kind")
		return [2]any{name, kind}, res.Err()
	})
	if err != nil {
		return labelcat.Label{}, fmt.Errorf("neo4jcat: query label id %d: %w", id, err)
	}
	if result == nil {
		return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label id %d not found", id)
	}
	pair := result.([2]any)
	return labelcat.Label{ID: id, Name: pair[0].(string), Kind: labelcat.LabelKind(pair[1].(int64))}, nil
}

// EnsureLabel implements labelcat.Catalog: MERGEs a :CyLabel node,
// allocating the next id via a :CyLabelCounter node the same way the
// teacher's UpsertFile/UpsertFunction MERGE-then-ON-CREATE-SET pattern
// assigns created/updated timestamps idempotently.
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

	session := s.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := `
			MERGE (c:CyLabelCounter {singleton: true})
			ON CREATE SET c.next = 1
			WITH c, c.next AS assigned
			SET c.next = c.next + 1
			MERGE (l:CyLabel {name: $name})
			ON CREATE SET l.id = assigned, l.kind = $kind
			RETURN l.id AS id
		`
		res, err := tx.Run(ctx, cypher, map[string]any{"name": name, "kind": int64(kind)})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, fmt.Errorf("neo4jcat: EnsureLabel produced no row")
		}
		id, _ := res.Record().Get("id")
		return id, res.Err()
	})
	if err != nil {
		return labelcat.Label{}, fmt.Errorf("neo4jcat: ensure label %q: %w", name, err)
	}
	return labelcat.Label{ID: graph.LabelID(result.(int64)), Name: name, Kind: kind}, nil
}
