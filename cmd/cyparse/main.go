// cmd/cyparse/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"cyquery/internal/config"
	"cyquery/internal/cyparse"
	"cyquery/internal/gcache"
	"cyquery/internal/gcache/fake"
	"cyquery/internal/labelcat"
	"cyquery/internal/neo4jcat"
	"cyquery/internal/oraclecat"
	"cyquery/internal/pgcat"
	"cyquery/internal/transform"
)

func main() {
	var query string
	var useAGE bool
	var useNeo4j bool
	var useOracle bool
	var graphOID int64

	flag.StringVar(&query, "query", "", "Cypher-like query text to transform (reads stdin if empty)")
	flag.BoolVar(&useAGE, "use-age", false, "Resolve labels against PostgreSQL/Apache AGE instead of an in-memory graph")
	flag.BoolVar(&useNeo4j, "use-neo4j", false, "Resolve labels against Neo4j instead of an in-memory graph")
	flag.BoolVar(&useOracle, "use-oracle", false, "Resolve labels against Oracle Graph instead of an in-memory graph")
	flag.Int64Var(&graphOID, "graph-oid", 1, "Graph OID threaded into the transformed query")
	flag.Parse()

	if query == "" {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		query = string(src)
	}

	ctx := context.Background()
	catalog, cache, closeFn, err := openBackend(ctx, useAGE, useNeo4j, useOracle)
	if err != nil {
		log.Fatalf("open backend: %v", err)
	}
	if closeFn != nil {
		defer closeFn()
	}

	q, err := cyparse.Parse(query)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}

	tctx := transform.NewContext(catalog, cache, graphOID)
	out, err := transform.TransformQuery(ctx, tctx, q)
	if err != nil {
		log.Fatalf("transform: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
}

func openBackend(ctx context.Context, useAGE, useNeo4j, useOracle bool) (labelcat.Catalog, gcache.Cache, func(), error) {
	switch {
	case useAGE:
		store, err := pgcat.Open(ctx, pgFromConfig())
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() { store.Close() }, nil
	case useNeo4j:
		store, err := neo4jcat.Open(ctx, neo4jFromConfig())
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() { store.Close(ctx) }, nil
	case useOracle:
		store, err := oraclecat.Open(ctx, oracleFromConfig())
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() { store.Close() }, nil
	default:
		g := fake.New()
		return g, g, nil, nil
	}
}

func pgFromConfig() pgcat.Config {
	c := config.PostgresFromEnv()
	return pgcat.Config{Host: c.Host, Port: c.Port, User: c.User, Pass: c.Pass, DB: c.DB, GraphName: c.GraphName}
}

func neo4jFromConfig() neo4jcat.Config {
	c := config.Neo4jFromEnv()
	return neo4jcat.Config{URI: c.URI, User: c.User, Pass: c.Pass, Database: c.Database}
}

func oracleFromConfig() oraclecat.Config {
	c := config.OracleFromEnv()
	return oraclecat.Config{User: c.User, Pass: c.Pass, ConnectString: c.ConnectString, GraphName: c.GraphName}
}
