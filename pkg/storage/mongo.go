package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/famtree/pkg/io"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Mongo defaults for locations without a database path.
const (
	MongoDefaultDatabase = "famtree"
	MongoCollection      = "trees"
)

// mongoRecord is the stored shape: one document per tree.
type mongoRecord struct {
	ID        string      `bson:"_id"`
	Tree      io.Document `bson:"tree"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

// MongoRepository keeps each tree as one document in the "trees"
// collection. Locations look like mongodb://host:port/database#name.
type MongoRepository struct {
	mu       sync.Mutex
	location string
	uri      string
	database string
	name     string
	client   *mongo.Client
}

// NewMongoRepository parses location. The connection is made on first use.
func NewMongoRepository(location string) (*MongoRepository, error) {
	base, name := splitFragment(location)
	u, err := url.Parse(base)
	if err != nil {
		return nil, invalidLocation(location, err)
	}
	if u.Host == "" {
		return nil, invalidLocation(location, fmt.Errorf("missing host"))
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		db = MongoDefaultDatabase
	}
	return &MongoRepository{location: location, uri: base, database: db, name: name}, nil
}

// Database returns the database the tree is stored in.
func (r *MongoRepository) Database() string { return r.database }

// Name returns the document id of the tree.
func (r *MongoRepository) Name() string { return r.name }

func (r *MongoRepository) Backend() string  { return BackendMongo }
func (r *MongoRepository) Location() string { return r.location }

func (r *MongoRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(r.uri))
		if err != nil {
			return nil, fmt.Errorf("connecting to mongodb: %w", err)
		}
		r.client = client
	}
	return r.client.Database(r.database).Collection(MongoCollection), nil
}

func (r *MongoRepository) Load(ctx context.Context, opts ...tree.Option) (s *tree.Store, report tree.LoadReport, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, r, start, err) }()

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, report, storageError(err, "load %s", r.location)
	}
	var rec mongoRecord
	err = withRetry(ctx, func() error {
		return retryable(coll.FindOne(ctx, bson.M{"_id": r.name}).Decode(&rec))
	})
	if err == mongo.ErrNoDocuments {
		return nil, report, notFound(r.location)
	}
	if err != nil {
		return nil, report, storageError(err, "load %s", r.location)
	}
	s, report = rec.Tree.Store(opts...)
	return s, report, nil
}

func (r *MongoRepository) Save(ctx context.Context, snap tree.Snapshot) (err error) {
	start := time.Now()
	defer func() { observeSave(ctx, r, start, err) }()

	coll, err := r.collection(ctx)
	if err != nil {
		return storageError(err, "save %s", r.location)
	}
	rec := mongoRecord{ID: r.name, Tree: io.NewDocument(snap), UpdatedAt: timeNow().UTC()}
	err = withRetry(ctx, func() error {
		_, err := coll.ReplaceOne(ctx, bson.M{"_id": r.name}, rec, options.Replace().SetUpsert(true))
		return retryable(err)
	})
	return storageError(err, "save %s", r.location)
}

// Close disconnects the client.
func (r *MongoRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.client.Disconnect(ctx)
	r.client = nil
	return err
}

var _ Repository = (*MongoRepository)(nil)
