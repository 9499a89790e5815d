// Package indexing fills the type graph from disk: a scanner walks the
// project tree, a watcher keeps the graph current as files change. Every
// graph mutation invalidates the shared subtree cache.
package indexing

import (
	"context"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/substratelabs/hsi/internal/config"
	hsierrors "github.com/substratelabs/hsi/internal/errors"
	"github.com/substratelabs/hsi/internal/graph"
	"github.com/substratelabs/hsi/internal/hierarchy"
	"github.com/substratelabs/hsi/internal/parser"
)

// Indexer parses files and installs their type declarations into the
// graph. Content hashes let unchanged files skip the parse on re-index.
type Indexer struct {
	cfg    *config.Config
	parser *parser.TypeParser
	graph  *graph.Graph
	cache  *hierarchy.SubtreeCache

	mu     sync.Mutex
	hashes map[string]uint64 // path -> content hash

	filesIndexed int64
	filesSkipped int64
}

// NewIndexer wires a parser, graph and subtree cache together.
func NewIndexer(cfg *config.Config, p *parser.TypeParser, g *graph.Graph, cache *hierarchy.SubtreeCache) *Indexer {
	return &Indexer{
		cfg:    cfg,
		parser: p,
		graph:  g,
		cache:  cache,
		hashes: make(map[string]uint64),
	}
}

// IndexFile parses one file and installs its declarations, replacing any
// previous contents for the path. Unchanged content is a no-op.
func (ix *Indexer) IndexFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return hsierrors.NewScanError("stat", err)
	}
	if info.Size() > ix.cfg.Index.MaxFileSize {
		atomic.AddInt64(&ix.filesSkipped, 1)
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return hsierrors.NewScanError("read", err)
	}

	hash := xxhash.Sum64(content)
	ix.mu.Lock()
	if prev, ok := ix.hashes[path]; ok && prev == hash {
		ix.mu.Unlock()
		atomic.AddInt64(&ix.filesSkipped, 1)
		return nil
	}
	ix.mu.Unlock()

	ft, err := ix.parser.ParseFile(ctx, path, content)
	if err != nil {
		return hsierrors.NewScanError("parse", err)
	}

	ix.graph.AddFile(path, ft.Package, ft.Decls)
	ix.cache.Invalidate()

	ix.mu.Lock()
	ix.hashes[path] = hash
	ix.mu.Unlock()
	atomic.AddInt64(&ix.filesIndexed, 1)
	return nil
}

// RemoveFile drops a file from the graph.
func (ix *Indexer) RemoveFile(path string) {
	if ix.graph.RemoveFile(path) {
		ix.cache.Invalidate()
	}
	ix.mu.Lock()
	delete(ix.hashes, path)
	ix.mu.Unlock()
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Indexed int64 `json:"indexed"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// IndexAll scans the project root and indexes every matching file with
// parallel workers. Per-file failures are collected, not fatal; the
// returned error aggregates them.
func (ix *Indexer) IndexAll(ctx context.Context) (IndexStats, error) {
	scanner := NewFileScanner(ix.cfg, ix.parser)
	paths, err := scanner.Scan(ctx, ix.cfg.Project.Root)
	if err != nil {
		return IndexStats{}, err
	}

	var failed int64
	var failMu sync.Mutex
	var failures []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := ix.IndexFile(gctx, path); err != nil {
				atomic.AddInt64(&failed, 1)
				failMu.Lock()
				failures = append(failures, err)
				failMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IndexStats{}, err
	}

	stats := IndexStats{
		Indexed: atomic.LoadInt64(&ix.filesIndexed),
		Skipped: atomic.LoadInt64(&ix.filesSkipped),
		Failed:  failed,
	}
	if len(failures) > 0 {
		return stats, hsierrors.NewMultiError(failures)
	}
	return stats, nil
}
