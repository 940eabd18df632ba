package diagnostics

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"cyquery/internal/ast"
	"cyquery/internal/cyparse"
	"cyquery/internal/gcache"
	"cyquery/internal/labelcat"
	"cyquery/internal/transform"
)

// fixtureState is the hash/mtime pair FixtureWatcher keeps per file,
// the diagnostics analogue of monitor.FileState.
type fixtureState struct {
	hash     string
	modified int64
}

// FixtureWatcher watches a directory of .cypher fixture files and
// re-runs each one through the clause transformer whenever its content
// changes, publishing an Event and updating Metrics per run. Grounded
// on internal/monitor/monitor.go's fsnotify.Watcher wiring and
// internal/monitor/file_tracker.go's hash-based change detection,
// generalized from "reparse a source file" to "retransform a fixture".
type FixtureWatcher struct {
	rootPath string
	watcher  *fsnotify.Watcher
	catalog  labelcat.Catalog
	cache    gcache.Cache
	graphOID int64
	metrics  *Metrics
	publish  func(Event)

	mu     sync.Mutex
	states map[string]fixtureState

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewFixtureWatcher builds a watcher rooted at rootPath. publish may be
// nil, in which case run results are only reflected in metrics.
func NewFixtureWatcher(rootPath string, catalog labelcat.Catalog, cache gcache.Cache, graphOID int64, metrics *Metrics, publish func(Event)) (*FixtureWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FixtureWatcher{
		rootPath: rootPath,
		watcher:  w,
		catalog:  catalog,
		cache:    cache,
		graphOID: graphOID,
		metrics:  metrics,
		publish:  publish,
		states:   make(map[string]fixtureState),
		stopChan: make(chan struct{}),
	}, nil
}

// Start adds rootPath to the watch list and runs every existing fixture
// once before watching begins, mirroring Monitor.Start's walk-then-watch
// sequence.
func (w *FixtureWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.rootPath, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.rootPath); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.rootPath)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isFixtureFile(e.Name()) {
			continue
		}
		path := filepath.Join(w.rootPath, e.Name())
		w.runFixture(ctx, path)
	}

	w.wg.Add(1)
	go w.watch(ctx)
	return nil
}

// Stop closes the watcher and waits for the watch loop to exit.
func (w *FixtureWatcher) Stop() error {
	close(w.stopChan)
	w.watcher.Close()
	w.wg.Wait()
	return nil
}

func (w *FixtureWatcher) watch(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("diagnostics: fixture watcher error: %v", err)
		}
	}
}

func (w *FixtureWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !isFixtureFile(event.Name) {
		return
	}
	switch {
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		w.runFixture(ctx, event.Name)
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		w.mu.Lock()
		delete(w.states, event.Name)
		w.mu.Unlock()
	}
}

// runFixture parses and transforms one fixture file if its content has
// changed since the last run, emitting an Event either way a run is
// attempted.
func (w *FixtureWatcher) runFixture(ctx context.Context, path string) {
	changed, err := w.hasChanged(path)
	if err != nil {
		log.Printf("diagnostics: stat fixture %s: %v", path, err)
		return
	}
	if !changed {
		return
	}

	src, err := os.ReadFile(path)
	if err != nil {
		log.Printf("diagnostics: read fixture %s: %v", path, err)
		return
	}

	query, err := cyparse.Parse(string(src))
	if err == nil {
		err = w.transformAndRecord(ctx, path, query)
	}

	w.metrics.RecordRun(err)
	w.emit(path, err)
}

func (w *FixtureWatcher) transformAndRecord(ctx context.Context, path string, query *ast.Query) error {
	tctx := transform.NewContext(w.catalog, w.cache, w.graphOID)
	for _, clause := range query.Clauses {
		w.metrics.RecordClause(clauseKind(clause))
		for range varLengthRels(clause) {
			w.metrics.RecordVLECall()
		}
	}
	_, err := transform.TransformQuery(ctx, tctx, query)
	return err
}

// varLengthRels returns every RelPattern in clause carrying a `*`
// quantifier, the pattern resolver's signal to synthesize a VLE range
// function call (spec.md §4.9) rather than a plain join.
func varLengthRels(clause ast.Clause) []ast.RelPattern {
	var patterns []ast.PathPattern
	switch c := clause.(type) {
	case *ast.Match:
		patterns = c.Patterns
	case *ast.Create:
		patterns = c.Patterns
	case *ast.Merge:
		patterns = []ast.PathPattern{c.Pattern}
	}

	var out []ast.RelPattern
	for _, p := range patterns {
		for _, rel := range p.Rels {
			if rel.HasStar {
				out = append(out, rel)
			}
		}
	}
	return out
}

func (w *FixtureWatcher) emit(path string, err error) {
	if w.publish == nil {
		return
	}
	ev := Event{Type: "fixture_run", Fixture: path, Timestamp: time.Now()}
	if err != nil {
		ev.Type = "fixture_error"
		ev.Err = err.Error()
	}
	w.publish(ev)
}

func (w *FixtureWatcher) hasChanged(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	hash, err := hashFile(path)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	prev, ok := w.states[path]
	current := fixtureState{hash: hash, modified: info.ModTime().Unix()}
	w.states[path] = current
	if !ok {
		return true, nil
	}
	return prev.hash != current.hash || prev.modified != current.modified, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

func isFixtureFile(name string) bool {
	return strings.HasSuffix(name, ".cypher")
}

// clauseKind names an ast.Clause by its concrete type, stripping the
// package qualifier ("*ast.Return" -> "Return").
func clauseKind(c ast.Clause) string {
	s := fmt.Sprintf("%T", c)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}
