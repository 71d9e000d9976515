package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/observability"
	"github.com/matzehuels/famtree/pkg/tree"
)

func sampleStore(t *testing.T) *tree.Store {
	t.Helper()
	s := tree.New()
	a, err := s.AddPerson(tree.Person{
		Name: "Hana", Gender: tree.GenderFemale, Birth: "1921", Death: "1999", Position: tree.Point{X: 100, Y: 0},
		PhotoPath: "photos/hana.png", Display: tree.DisplayNameAndPhoto, PhotoScale: 1.5,
	})
	require.NoError(t, err)
	b, err := s.AddPerson(tree.Person{Name: "Kenji", Gender: tree.GenderMale, Memo: "farmer", Position: tree.Point{X: 300, Y: 0}})
	require.NoError(t, err)
	c, err := s.AddPerson(tree.Person{Name: "Yuki", Position: tree.Point{X: 200, Y: 130}})
	require.NoError(t, err)
	require.NoError(t, s.AddParentChild(a, c, tree.KindBiological))
	require.NoError(t, s.AddParentChild(b, c, tree.KindAdoptive))
	require.NoError(t, s.AddSpouse(a, b, "m. 1940"))
	fam, err := s.AddFamily("Sato", tree.RGB{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, s.AddFamilyMember(fam, a))
	require.NoError(t, s.AddFamilyMember(fam, c))
	ev, err := s.AddEvent(tree.Event{Name: "Emigration", Date: "1952", Color: tree.RGB{9, 8, 7}, Position: tree.Point{X: 10, Y: 390}})
	require.NoError(t, err)
	require.NoError(t, s.AddEventLink(tree.EventLink{Event: ev, Person: c, Style: tree.StyleArrowFromPerson, Memo: "age 10"}))
	return s
}

func assertSameSnapshot(t *testing.T, want, got tree.Snapshot) {
	t.Helper()
	require.Len(t, got.Persons, len(want.Persons))
	for i := range want.Persons {
		w, g := want.Persons[i], got.Persons[i]
		w.Pin, g.Pin = tree.Auto, tree.Auto
		assert.Equal(t, w, g)
	}
	assert.Equal(t, want.Edges, got.Edges)
	assert.Equal(t, want.Spouses, got.Spouses)
	assert.Equal(t, want.Families, got.Families)
	require.Len(t, got.Events, len(want.Events))
	for i := range want.Events {
		w, g := want.Events[i], got.Events[i]
		w.Pin, g.Pin = tree.Auto, tree.Auto
		assert.Equal(t, w, g)
	}
	assert.Equal(t, want.Links, got.Links)
}

func TestDetect(t *testing.T) {
	tests := map[string]string{
		"family.json":                   BackendJSON,
		"family":                        BackendJSON,
		"trees/family.YAML":             BackendYAML,
		"family.yml":                    BackendYAML,
		"family.db":                     BackendSQLite,
		"family.sqlite":                 BackendSQLite,
		"family.sqlite3":                BackendSQLite,
		"redis://localhost:6379/0#sato": BackendRedis,
		"rediss://cache.example.com":    BackendRedis,
		"mongodb://localhost/genealogy": BackendMongo,
		"mongodb+srv://cluster.example": BackendMongo,
	}
	for location, want := range tests {
		assert.Equal(t, want, Detect(location), location)
	}
}

func TestDir(t *testing.T) {
	tests := map[string]string{
		"family.json":                   ".",
		"trees/family.db":               "trees",
		"/srv/trees/sato.yaml":          "/srv/trees",
		"redis://localhost:6379/0#sato": "",
		"mongodb://localhost/genealogy": "",
	}
	for location, want := range tests {
		assert.Equal(t, filepath.FromSlash(want), Dir(location), location)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	repo, err := Open(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileRepository{}, repo)
	assert.Equal(t, BackendJSON, repo.Backend())

	repo, err = Open(filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendYAML, repo.Backend())

	repo, err = Open(filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepository{}, repo)

	repo, err = Open("redis://localhost:6379/2#sato")
	require.NoError(t, err)
	require.IsType(t, &RedisRepository{}, repo)
	assert.Equal(t, "famtree:tree:sato", repo.(*RedisRepository).Key())

	repo, err = Open("mongodb://localhost:27017/genealogy#sato")
	require.NoError(t, err)
	require.IsType(t, &MongoRepository{}, repo)
	assert.Equal(t, "genealogy", repo.(*MongoRepository).Database())
	assert.Equal(t, "sato", repo.(*MongoRepository).Name())

	_, err = Open("  ")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath))
}

func TestNetworkLocationDefaults(t *testing.T) {
	r, err := NewRedisRepository("redis://localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, RedisKeyPrefix+DefaultKey, r.Key())

	m, err := NewMongoRepository("mongodb://localhost")
	require.NoError(t, err)
	assert.Equal(t, MongoDefaultDatabase, m.Database())
	assert.Equal(t, DefaultKey, m.Name())

	_, err = NewRedisRepository("redis://localhost:6379/notadb")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath))

	_, err = NewMongoRepository("mongodb:///nohost")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath))
}

func TestFileRoundTrip(t *testing.T) {
	for _, name := range []string{"family.json", "family.yaml"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo, err := Open(filepath.Join(t.TempDir(), name))
			require.NoError(t, err)
			defer repo.Close()

			s := sampleStore(t)
			require.NoError(t, repo.Save(ctx, s.Snapshot()))

			loaded, report, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Zero(t, report.Total())
			assertSameSnapshot(t, s.Snapshot(), loaded.Snapshot())
		})
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "family.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	s := sampleStore(t)
	require.NoError(t, repo.Save(ctx, s.Snapshot()))

	loaded, report, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Total())
	assertSameSnapshot(t, s.Snapshot(), loaded.Snapshot())

	for _, p := range loaded.Persons() {
		assert.Equal(t, tree.Pinned, p.Pin, p.Name)
	}

	// A fresh repository on the same file sees the same tree.
	other, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer other.Close()
	again, _, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Len())
}

func TestSQLiteAddsPhotoColumns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE persons (
		id TEXT PRIMARY KEY, name TEXT NOT NULL, gender INTEGER NOT NULL, birth TEXT,
		memo TEXT NOT NULL, position_x REAL NOT NULL, position_y REAL NOT NULL,
		deceased INTEGER NOT NULL, death TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	s := sampleStore(t)
	require.NoError(t, repo.Save(ctx, s.Snapshot()))
	loaded, _, err := repo.Load(ctx)
	require.NoError(t, err)

	hana := loaded.FindPersons("Hana")
	require.Len(t, hana, 1)
	assert.Equal(t, "photos/hana.png", hana[0].PhotoPath)
	assert.Equal(t, tree.DisplayNameAndPhoto, hana[0].Display)
	assert.Equal(t, 1.5, hana[0].PhotoScale)
}

func TestSQLiteSaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "family.sqlite"))
	require.NoError(t, err)
	defer repo.Close()

	s := sampleStore(t)
	require.NoError(t, repo.Save(ctx, s.Snapshot()))

	yuki := s.FindPersons("Yuki")
	require.Len(t, yuki, 1)
	require.NoError(t, s.RemovePerson(yuki[0].ID))
	require.NoError(t, repo.Save(ctx, s.Snapshot()))

	loaded, _, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Empty(t, loaded.ParentChildEdges())
	assert.Empty(t, loaded.EventLinks())
	assert.Len(t, loaded.SpouseEdges(), 1)
}

func TestSQLiteNotFound(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := NewSQLiteRepository(filepath.Join(dir, "absent.db"))
	require.NoError(t, err)
	_, _, err = repo.Load(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "error = %v", err)
	_, statErr := os.Stat(filepath.Join(dir, "absent.db"))
	assert.True(t, os.IsNotExist(statErr), "Load must not create the database")

	// A database with tables but no saved tree.
	empty, err := NewSQLiteRepository(filepath.Join(dir, "empty.db"))
	require.NoError(t, err)
	defer empty.Close()
	require.NoError(t, empty.open(ctx))
	_, _, err = empty.Load(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "error = %v", err)
}

func TestSQLiteFixedTimestamp(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = time.Now })

	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "family.db"))
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.Save(ctx, tree.New().Snapshot()))

	var updated string
	var version int
	require.NoError(t, repo.db.QueryRow("SELECT schema_version, updated_at FROM tree_metadata").Scan(&version, &updated))
	assert.Equal(t, SchemaVersion, version)
	assert.Equal(t, "2024-05-01T12:00:00Z", updated)
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src, err := Open(filepath.Join(dir, "family.json"))
	require.NoError(t, err)
	dst, err := Open(filepath.Join(dir, "family.db"))
	require.NoError(t, err)
	defer dst.Close()

	s := sampleStore(t)
	require.NoError(t, src.Save(ctx, s.Snapshot()))

	_, err = Copy(ctx, src, dst)
	require.NoError(t, err)

	loaded, _, err := dst.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, s.Snapshot(), loaded.Snapshot())
}

type recordingHooks struct {
	mu    sync.Mutex
	loads []string
	saves []string
}

func (h *recordingHooks) OnLoad(_ context.Context, backend, _ string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads = append(h.loads, backend+":"+string(errors.GetCode(err)))
}

func (h *recordingHooks) OnSave(_ context.Context, backend, _ string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saves = append(h.saves, backend)
}

func TestStorageHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetStorageHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "family.json"))
	require.NoError(t, err)

	_, _, err = repo.Load(ctx)
	require.Error(t, err)
	require.NoError(t, repo.Save(ctx, tree.New().Snapshot()))
	_, _, err = repo.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"json:NOT_FOUND_FILE", "json:"}, hooks.loads)
	assert.Equal(t, []string{"json"}, hooks.saves)
}

func TestWithRetry(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 500 * time.Millisecond })
	ctx := context.Background()
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")}

	t.Run("retries network errors", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return retryable(netErr)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up with the last error", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, func() error {
			calls++
			return retryable(netErr)
		})
		assert.Equal(t, retryAttempts, calls)
		assert.Same(t, netErr, err)
	})

	t.Run("other errors are final", func(t *testing.T) {
		calls := 0
		plain := stderrors.New("bad document")
		err := withRetry(ctx, func() error {
			calls++
			return retryable(plain)
		})
		assert.Equal(t, 1, calls)
		assert.Same(t, plain, err)
	})
}
