package storage

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/observability"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Backend names reported to observability hooks and shown by the CLI.
const (
	BackendJSON   = "json"
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// DefaultKey is the record name used by Redis and MongoDB locations that
// carry no #fragment.
const DefaultKey = "default"

// Repository loads and saves one family tree.
type Repository interface {
	// Load reads the tree. Malformed records are dropped and counted in the
	// report. A location that holds no tree yet returns NOT_FOUND_FILE.
	Load(ctx context.Context, opts ...tree.Option) (*tree.Store, tree.LoadReport, error)

	// Save replaces the stored tree with snap.
	Save(ctx context.Context, snap tree.Snapshot) error

	// Backend names the storage kind, one of the Backend* constants.
	Backend() string

	// Location is the string the repository was opened with.
	Location() string

	Close() error
}

// Open returns the repository for a location. Schemes are checked first
// (redis://, rediss://, mongodb://, mongodb+srv://), then file extensions
// (.db, .sqlite, .sqlite3 for SQLite; .yaml, .yml for YAML). Anything else
// is a JSON file.
//
// Network backends connect lazily; Open never blocks on I/O.
func Open(location string) (Repository, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "empty location")
	}
	switch Detect(location) {
	case BackendRedis:
		return NewRedisRepository(location)
	case BackendMongo:
		return NewMongoRepository(location)
	case BackendSQLite:
		return NewSQLiteRepository(location)
	case BackendYAML:
		return NewFileRepository(location, BackendYAML)
	default:
		return NewFileRepository(location, BackendJSON)
	}
}

// Detect returns the backend Open would pick for location.
func Detect(location string) string {
	if u, err := url.Parse(location); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "redis", "rediss":
			return BackendRedis
		case "mongodb", "mongodb+srv":
			return BackendMongo
		}
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite
	case ".yaml", ".yml":
		return BackendYAML
	}
	return BackendJSON
}

// Dir returns the directory holding a file or SQLite location, which is
// where relative photo paths are resolved. Network locations have none.
func Dir(location string) string {
	switch Detect(location) {
	case BackendRedis, BackendMongo:
		return ""
	}
	return filepath.Dir(location)
}

// Copy loads the tree from src and saves it to dst. The returned report
// lists what src dropped on load.
func Copy(ctx context.Context, src, dst Repository) (tree.LoadReport, error) {
	s, report, err := src.Load(ctx)
	if err != nil {
		return report, err
	}
	return report, dst.Save(ctx, s.Snapshot())
}

// splitFragment separates "#key" from a URL location.
func splitFragment(location string) (base, key string) {
	base, key, _ = strings.Cut(location, "#")
	if key == "" {
		key = DefaultKey
	}
	return base, key
}

func observeLoad(ctx context.Context, r Repository, start time.Time, err error) {
	observability.Storage().OnLoad(ctx, r.Backend(), r.Location(), time.Since(start), err)
}

func observeSave(ctx context.Context, r Repository, start time.Time, err error) {
	observability.Storage().OnSave(ctx, r.Backend(), r.Location(), time.Since(start), err)
}

func storageError(err error, format string, args ...any) error {
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeStorage, err, format, args...)
}

func notFound(location string) error {
	return errors.New(errors.ErrCodeFileNotFound, "no tree at %s", location)
}

func invalidLocation(location string, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidPath, err, "location %s", location)
}

func parseID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
