package storage

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/famtree/pkg/io"
	"github.com/matzehuels/famtree/pkg/tree"
)

// RedisKeyPrefix namespaces tree keys.
const RedisKeyPrefix = "famtree:tree:"

// RedisRepository keeps a tree as one JSON value under a Redis key.
// Locations look like redis://[:password@]host:port/db#name; the fragment
// names the tree and defaults to "default".
type RedisRepository struct {
	mu       sync.Mutex
	location string
	key      string
	opts     *redis.Options
	client   redis.UniversalClient
}

// NewRedisRepository parses location. The connection is made on first use.
func NewRedisRepository(location string) (*RedisRepository, error) {
	base, name := splitFragment(location)
	opts, err := redis.ParseURL(base)
	if err != nil {
		return nil, invalidLocation(location, err)
	}
	return &RedisRepository{location: location, key: RedisKeyPrefix + name, opts: opts}, nil
}

// NewRedisRepositoryWithClient uses an existing client, for callers that
// share one connection pool across trees.
func NewRedisRepositoryWithClient(client redis.UniversalClient, name string) *RedisRepository {
	if name == "" {
		name = DefaultKey
	}
	return &RedisRepository{location: "redis#" + name, key: RedisKeyPrefix + name, client: client}
}

// Key returns the Redis key holding the tree.
func (r *RedisRepository) Key() string { return r.key }

func (r *RedisRepository) Backend() string  { return BackendRedis }
func (r *RedisRepository) Location() string { return r.location }

func (r *RedisRepository) conn() redis.UniversalClient {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		r.client = redis.NewClient(r.opts)
	}
	return r.client
}

func (r *RedisRepository) Load(ctx context.Context, opts ...tree.Option) (s *tree.Store, report tree.LoadReport, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, r, start, err) }()

	var data []byte
	err = withRetry(ctx, func() error {
		var getErr error
		data, getErr = r.conn().Get(ctx, r.key).Bytes()
		return retryable(getErr)
	})
	if err == redis.Nil {
		return nil, report, notFound(r.location)
	}
	if err != nil {
		return nil, report, storageError(err, "load %s", r.location)
	}
	return io.ReadJSON(bytes.NewReader(data), opts...)
}

func (r *RedisRepository) Save(ctx context.Context, snap tree.Snapshot) (err error) {
	start := time.Now()
	defer func() { observeSave(ctx, r, start, err) }()

	var buf bytes.Buffer
	if err := io.WriteJSON(snap, &buf); err != nil {
		return storageError(err, "save %s", r.location)
	}
	err = withRetry(ctx, func() error {
		return retryable(r.conn().Set(ctx, r.key, buf.Bytes(), 0).Err())
	})
	return storageError(err, "save %s", r.location)
}

// Close releases the connection pool.
func (r *RedisRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

var _ Repository = (*RedisRepository)(nil)
