package storage

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/famtree/pkg/io"
	"github.com/matzehuels/famtree/pkg/tree"
)

// FileRepository keeps a tree in a single JSON or YAML file.
type FileRepository struct {
	mu      sync.RWMutex
	path    string
	backend string
}

// NewFileRepository returns a repository for path. backend is BackendJSON
// or BackendYAML.
func NewFileRepository(path, backend string) (*FileRepository, error) {
	if backend != BackendYAML {
		backend = BackendJSON
	}
	return &FileRepository{path: path, backend: backend}, nil
}

func (r *FileRepository) Load(ctx context.Context, opts ...tree.Option) (s *tree.Store, report tree.LoadReport, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, r, start, err) }()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.backend == BackendYAML {
		return io.ImportYAML(r.path, opts...)
	}
	return io.ImportJSON(r.path, opts...)
}

func (r *FileRepository) Save(ctx context.Context, snap tree.Snapshot) (err error) {
	start := time.Now()
	defer func() { observeSave(ctx, r, start, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend == BackendYAML {
		return io.ExportYAML(snap, r.path)
	}
	return io.ExportJSON(snap, r.path)
}

func (r *FileRepository) Backend() string  { return r.backend }
func (r *FileRepository) Location() string { return r.path }
func (r *FileRepository) Close() error     { return nil }

var _ Repository = (*FileRepository)(nil)
