// Package scanner walks one directory, analyzes every entry as an ELF object and folds
// the results into a dependency index.
//
// Only a failure to list the directory is fatal. Every per-file problem becomes a
// Diagnostic and the scan continues. Files may be parsed on a worker pool, but the fold
// always happens in listing order, so the report does not depend on Options.Jobs.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/isseis/elfdeps/internal/depindex"
	"github.com/isseis/elfdeps/internal/elfanalyzer"
	"github.com/isseis/elfdeps/internal/safefileio"
)

// ErrListDirectory is returned when the scanned directory cannot be listed.
var ErrListDirectory = errors.New("failed to list directory")

// FileReader reads a whole file. *safefileio.Reader implements it.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Options configures a Scanner.
type Options struct {
	// Jobs is the number of files parsed concurrently. Values below 1 mean 1.
	Jobs int
	// Dedupe reuses the analysis of byte-identical files.
	Dedupe bool
	// Reader defaults to a safefileio.Reader with default limits.
	Reader FileReader
	// RunID is copied into the Result.
	RunID string
}

// Stats counts scan outcomes.
type Stats struct {
	Candidates    int
	Parsed        int
	Static        int
	Skipped       int
	EntryFailures int
	DedupeHits    int
}

// Result is the outcome of one scan.
type Result struct {
	RunID       string
	Directory   string
	Report      *depindex.Report
	Diagnostics []Diagnostic
	Stats       Stats
}

// Scanner scans directories. It holds no state between scans.
type Scanner struct {
	opts Options
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	if opts.Reader == nil {
		opts.Reader = safefileio.NewReader(safefileio.ReadOptions{})
	}
	return &Scanner{opts: opts}
}

// outcome is the isolated parse result of one file, before the fold.
type outcome struct {
	kind      Kind
	deps      *elfanalyzer.Dependencies
	err       error
	dedupeHit bool
}

// Scan analyzes every entry directly inside dir.
func (s *Scanner) Scan(ctx context.Context, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrListDirectory, dir, err)
	}

	names := make([]string, len(entries))
	paths := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
		paths[i] = filepath.Join(dir, e.Name())
	}

	outcomes, err := s.parseAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	return s.fold(dir, names, paths, outcomes), nil
}

func (s *Scanner) parseAll(ctx context.Context, paths []string) ([]outcome, error) {
	outcomes := make([]outcome, len(paths))
	var cache *contentCache
	if s.opts.Dedupe {
		cache = newContentCache()
	}

	if s.opts.Jobs == 1 {
		for i, p := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = s.parse(p, cache)
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Jobs)
	for i, p := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.parse(p, cache)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// parse reads and analyzes one file. It touches no shared state except the cache.
func (s *Scanner) parse(path string, cache *contentCache) outcome {
	buf, err := s.opts.Reader.ReadFile(path)
	if err != nil {
		return outcome{kind: KindIoFailure, err: err}
	}

	if cache != nil {
		key := xxh3.Hash128(buf)
		if o, ok := cache.get(key); ok {
			o.dedupeHit = true
			return o
		}
		o := analyze(buf)
		cache.put(key, o)
		return o
	}
	return analyze(buf)
}

func analyze(buf []byte) outcome {
	deps, err := elfanalyzer.Analyze(buf)
	switch {
	case errors.Is(err, elfanalyzer.ErrNotELF):
		return outcome{kind: KindNotObjectFormat, err: err}
	case err != nil:
		return outcome{kind: KindMalformedHeader, err: err}
	case deps.Static:
		return outcome{kind: KindStatic, deps: deps}
	default:
		return outcome{kind: KindOK, deps: deps}
	}
}

// fold feeds the outcomes into a fresh index in listing order. The index records the
// entry name; diagnostics carry the full path.
func (s *Scanner) fold(dir string, names, paths []string, outcomes []outcome) *Result {
	res := &Result{
		RunID:     s.opts.RunID,
		Directory: dir,
		Stats:     Stats{Candidates: len(paths)},
	}
	ix := depindex.New()

	for i, o := range outcomes {
		file := paths[i]
		if o.dedupeHit {
			res.Stats.DedupeHits++
		}
		if o.kind.Skipped() {
			res.Stats.Skipped++
			res.Diagnostics = append(res.Diagnostics, Diagnostic{File: file, Kind: o.kind, Err: o.err})
			continue
		}

		res.Stats.Parsed++
		if o.kind == KindStatic {
			res.Stats.Static++
			res.Diagnostics = append(res.Diagnostics, Diagnostic{File: file, Kind: KindStatic, Err: elfanalyzer.ErrNoDynamicSection})
		}
		for _, w := range o.deps.Warnings {
			res.Stats.EntryFailures++
			res.Diagnostics = append(res.Diagnostics, Diagnostic{File: file, Kind: KindEntryFailure, Err: w})
		}
		// The index is private to this fold and never finalized before the loop ends.
		_ = ix.Add(depindex.Record{File: names[i], Libraries: o.deps.Libraries})
	}

	res.Report = ix.Finalize()
	return res
}

// contentCache maps a content fingerprint to the analysis of that content.
type contentCache struct {
	mu      sync.Mutex
	entries map[xxh3.Uint128]outcome
}

func newContentCache() *contentCache {
	return &contentCache{entries: make(map[xxh3.Uint128]outcome)}
}

func (c *contentCache) get(key xxh3.Uint128) (outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.entries[key]
	return o, ok
}

func (c *contentCache) put(key xxh3.Uint128, o outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = o
}
