// Package config centralizes the env-var driven configuration that
// internal/pgcat, internal/neo4jcat, internal/oraclecat, and
// internal/diagnostics each need to reach their backing store. Grounded
// on the three `model` backends' NewXClient env-var loading
// (internal/model/age_graph.go, graph.go, oracle_graph.go).
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env (if present), exactly as
// the teacher's model package did per backend; centralized here so it
// only runs once regardless of which backend a binary wires up.
func init() {
	_ = godotenv.Load()
}

// Postgres holds the lib/pq-backed catalog/cache connection settings.
type Postgres struct {
	Host      string
	Port      string
	User      string
	Pass      string
	DB        string
	GraphName string
}

// PostgresFromEnv reads PG_HOST, PG_PORT, PG_USER, PG_PASS, PG_DB, and
// AGE_GRAPH_NAME, falling back to the same defaults the teacher used.
func PostgresFromEnv() Postgres {
	return Postgres{
		Host:      getenvDefault("PG_HOST", "localhost"),
		Port:      getenvDefault("PG_PORT", "5432"),
		User:      getenvDefault("PG_USER", "postgres"),
		Pass:      os.Getenv("PG_PASS"),
		DB:        getenvDefault("PG_DB", "postgres"),
		GraphName: getenvDefault("AGE_GRAPH_NAME", "cyquery"),
	}
}

// Neo4j holds the neo4j-go-driver connection settings.
type Neo4j struct {
	URI      string
	User     string
	Pass     string
	Database string
}

// Neo4jFromEnv reads NEO4J_URI, NEO4J_USER, NEO4J_PASS, NEO4J_DATABASE.
func Neo4jFromEnv() Neo4j {
	return Neo4j{
		URI:      getenvDefault("NEO4J_URI", "bolt://localhost:7687"),
		User:     getenvDefault("NEO4J_USER", "neo4j"),
		Pass:     os.Getenv("NEO4J_PASS"),
		Database: getenvDefault("NEO4J_DATABASE", "neo4j"),
	}
}

// Oracle holds the godror-backed Oracle Graph connection settings.
type Oracle struct {
	ConnectString string
	User          string
	Pass          string
	GraphName     string
}

// OracleFromEnv reads ORACLE_CONNECT_STRING, ORACLE_USER, ORACLE_PASS,
// ORACLE_GRAPH_NAME.
func OracleFromEnv() Oracle {
	return Oracle{
		ConnectString: os.Getenv("ORACLE_CONNECT_STRING"),
		User:          getenvDefault("ORACLE_USER", "graph_user"),
		Pass:          os.Getenv("ORACLE_PASS"),
		GraphName:     getenvDefault("ORACLE_GRAPH_NAME", "cyquery"),
	}
}

// Diagnostics holds internal/diagnostics' HTTP/WS server and fixture
// watcher settings.
type Diagnostics struct {
	Addr        string
	FixtureDir  string
	EnableWatch bool
}

// DiagnosticsFromEnv reads DIAG_ADDR, DIAG_FIXTURE_DIR, DIAG_WATCH.
func DiagnosticsFromEnv() Diagnostics {
	return Diagnostics{
		Addr:        getenvDefault("DIAG_ADDR", ":8081"),
		FixtureDir:  getenvDefault("DIAG_FIXTURE_DIR", "./fixtures"),
		EnableWatch: getenvBoolDefault("DIAG_WATCH", true),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
