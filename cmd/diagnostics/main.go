// cmd/diagnostics/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cyquery/internal/config"
	"cyquery/internal/diagnostics"
	"cyquery/internal/gcache/fake"
)

func main() {
	cfg := config.DiagnosticsFromEnv()

	var addr string
	var fixtureDir string
	var enableWatch bool
	flag.StringVar(&addr, "addr", cfg.Addr, "HTTP/WebSocket listen address")
	flag.StringVar(&fixtureDir, "fixture-dir", cfg.FixtureDir, "Directory of .cypher fixtures to watch")
	flag.BoolVar(&enableWatch, "watch", cfg.EnableWatch, "Watch fixture-dir and retransform fixtures on change")
	flag.Parse()

	ctx := context.Background()
	metrics := diagnostics.NewMetrics()
	server := diagnostics.NewServer(metrics)

	if enableWatch {
		// An in-memory graph is enough to exercise label resolution
		// for diagnostic fixture runs; real backends are reached
		// through cmd/cyparse when resolving against a live catalog
		// matters.
		graph := fake.New()
		watcher, err := diagnostics.NewFixtureWatcher(fixtureDir, graph, graph, 1, metrics, server.PublishEvent)
		if err != nil {
			log.Fatalf("create fixture watcher: %v", err)
		}
		if err := watcher.Start(ctx); err != nil {
			log.Fatalf("start fixture watcher: %v", err)
		}
		defer watcher.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("diagnostics server listening on %s", addr)
		if err := server.Serve(addr); err != nil {
			log.Fatalf("diagnostics server: %v", err)
		}
	}()

	<-sigChan
	log.Println("shutting down diagnostics server...")
}
