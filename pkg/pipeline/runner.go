package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/famtree/pkg/cache"
	"github.com/matzehuels/famtree/pkg/errors"
	famio "github.com/matzehuels/famtree/pkg/io"
	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/storage"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Runner executes the pipeline with an artifact cache. It holds no
// per-run state, so one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses [cache.DefaultKeyer] and a nil logger uses [log.Default].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs load, layout and render for opts.Location.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Location == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "location is required")
	}

	loadStart := time.Now()
	s, report, err := r.Load(ctx, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	result, err := r.Run(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	result.Report = report
	result.Stats.LoadTime = loadTime
	return result, nil
}

// Run lays out and renders an already loaded store. The store's positions
// are updated in place.
func (r *Runner) Run(ctx context.Context, s *tree.Store, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Store: s}
	result.Stats.Persons = s.Len()
	result.Stats.Events = len(s.Events())

	layoutStart := time.Now()
	result.Layout = r.Layout(s, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	opts.Logger.Info("computed layout",
		"persons", s.Len(),
		"tiers", len(result.Layout.Tiers),
		"crossings", result.Layout.Crossings,
		"duration", result.Stats.LayoutTime)
	if w := result.Layout.Warning(); w != nil {
		opts.Logger.Warn(errors.UserMessage(w))
	}

	hash, err := TreeHash(s)
	if err != nil {
		return nil, err
	}
	result.TreeHash = hash

	renderStart := time.Now()
	artifacts, hits, err := r.RenderWithCacheInfo(ctx, s, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo = CacheInfo{Hits: hits, RenderHit: len(hits) == len(artifacts)}
	result.Stats.RenderTime = time.Since(renderStart)
	opts.Logger.Info("rendered outputs",
		"formats", opts.sortedFormats(),
		"cached", len(hits),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load opens location and reads the tree.
func (r *Runner) Load(ctx context.Context, location string) (*tree.Store, tree.LoadReport, error) {
	repo, err := storage.Open(location)
	if err != nil {
		return nil, tree.LoadReport{}, err
	}
	defer repo.Close()

	s, report, err := repo.Load(ctx)
	if err != nil {
		return nil, report, err
	}
	if n := report.Total(); n > 0 {
		r.Logger.Warn("dropped invalid records", "count", n, "detail", report.String())
	}
	r.Logger.Info("loaded tree", "backend", repo.Backend(), "persons", s.Len())
	return s, report, nil
}

// Layout places every unpinned node, or every node when opts.Reset is set.
func (r *Runner) Layout(s *tree.Store, opts Options) layout.Result {
	engine := layout.New(layout.WithConfig(opts.Layout), layout.WithLogger(opts.Logger))
	if opts.Reset {
		return engine.Reset(s)
	}
	return engine.Apply(s)
}

// RenderWithCacheInfo renders every requested format of s, reading and
// filling the cache. It returns the formats served from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *tree.Store, treeHash string, opts Options) (map[string][]byte, []string, error) {
	artifacts := make(map[string][]byte)
	var hits []string
	for _, format := range opts.sortedFormats() {
		key := r.Keyer.ArtifactKey(treeHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				hits = append(hits, format)
				continue
			}
		}
		data, err := RenderFormat(ctx, s, format, opts)
		if err != nil {
			return nil, nil, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Debug("cache write failed", "format", format, "error", err)
		}
	}
	return artifacts, hits, nil
}

// Render is RenderWithCacheInfo without the hit list.
func (r *Runner) Render(ctx context.Context, s *tree.Store, opts Options) (map[string][]byte, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	hash, err := TreeHash(s)
	if err != nil {
		return nil, err
	}
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, hash, opts)
	return artifacts, err
}

// TreeHash hashes the canonical JSON form of s, positions included.
func TreeHash(s *tree.Store) (string, error) {
	var buf bytes.Buffer
	if err := famio.WriteJSON(s.Snapshot(), &buf); err != nil {
		return "", fmt.Errorf("serialize tree for cache key: %w", err)
	}
	return cache.Hash(buf.Bytes()), nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
