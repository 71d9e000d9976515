// Package cache stores rendered artifacts so repeated renders of an
// unchanged tree skip the render stage.
//
// Keys are derived from a hash of the serialized tree plus every option
// that affects the output, so an edit to the tree or a different theme
// yields a different key and stale entries are never served.
//
//	c, _ := cache.NewFileCache(dir)
//	key := cache.NewDefaultKeyer().ArtifactKey(treeHash, cache.ArtifactKeyOpts{Format: "svg"})
//	if data, hit, _ := c.Get(ctx, key); hit {
//	    return data
//	}
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long a rendered artifact stays valid.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the data for key and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ArtifactKeyOpts lists the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Theme    string  `json:"theme,omitempty"`
	Language string  `json:"language,omitempty"`
	Grid     float64 `json:"grid,omitempty"` // zero when the grid is hidden
	Year     int     `json:"year,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
	Events   bool    `json:"events,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	AutoSize bool    `json:"auto_size,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	ArtifactKey(treeHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey hashes the tree hash together with opts.
func (DefaultKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", treeHash, opts)
}
