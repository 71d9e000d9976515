package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/tree"
)

// SchemaVersion is written to tree_metadata on every save.
const SchemaVersion = 1

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS tree_metadata (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		gender INTEGER NOT NULL,
		birth TEXT,
		memo TEXT NOT NULL,
		position_x REAL NOT NULL,
		position_y REAL NOT NULL,
		deceased INTEGER NOT NULL,
		death TEXT,
		photo_path TEXT,
		display_mode INTEGER NOT NULL DEFAULT 0,
		photo_scale REAL NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS parent_child_edges (
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		FOREIGN KEY(parent_id) REFERENCES persons(id) ON DELETE CASCADE,
		FOREIGN KEY(child_id) REFERENCES persons(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS spouses (
		person1_id TEXT NOT NULL,
		person2_id TEXT NOT NULL,
		memo TEXT NOT NULL,
		FOREIGN KEY(person1_id) REFERENCES persons(id) ON DELETE CASCADE,
		FOREIGN KEY(person2_id) REFERENCES persons(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS families (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color_r INTEGER,
		color_g INTEGER,
		color_b INTEGER
	);

	CREATE TABLE IF NOT EXISTS family_members (
		family_id TEXT NOT NULL,
		person_id TEXT NOT NULL,
		PRIMARY KEY(family_id, person_id),
		FOREIGN KEY(family_id) REFERENCES families(id) ON DELETE CASCADE,
		FOREIGN KEY(person_id) REFERENCES persons(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT,
		description TEXT NOT NULL,
		position_x REAL NOT NULL,
		position_y REAL NOT NULL,
		color_r INTEGER NOT NULL,
		color_g INTEGER NOT NULL,
		color_b INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event_relations (
		event_id TEXT NOT NULL,
		person_id TEXT NOT NULL,
		relation_type INTEGER NOT NULL,
		memo TEXT NOT NULL,
		FOREIGN KEY(event_id) REFERENCES events(id) ON DELETE CASCADE,
		FOREIGN KEY(person_id) REFERENCES persons(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_parent_child_parent ON parent_child_edges(parent_id);
	CREATE INDEX IF NOT EXISTS idx_parent_child_child ON parent_child_edges(child_id);
	CREATE INDEX IF NOT EXISTS idx_family_members_person ON family_members(person_id);
	CREATE INDEX IF NOT EXISTS idx_event_relations_event ON event_relations(event_id);
	CREATE INDEX IF NOT EXISTS idx_event_relations_person ON event_relations(person_id);
`

// Column encodings. Gender values predate the Gender type and differ from it.
var (
	genderColumn = map[tree.Gender]int64{tree.GenderMale: 0, tree.GenderFemale: 1, tree.GenderUnknown: 2}
	styleColumn  = map[tree.LinkStyle]int64{tree.StyleLine: 0, tree.StyleArrowToPerson: 1, tree.StyleArrowFromPerson: 2}
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// SQLiteRepository stores a tree in normalized SQLite tables.
type SQLiteRepository struct {
	mu   sync.Mutex
	path string
	db   *sql.DB
}

// NewSQLiteRepository returns a repository for the database file at path.
// The database is opened on first use.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	return &SQLiteRepository{path: path}, nil
}

func (r *SQLiteRepository) Backend() string  { return BackendSQLite }
func (r *SQLiteRepository) Location() string { return r.path }

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// open connects and ensures the schema. Caller holds r.mu.
func (r *SQLiteRepository) open(ctx context.Context) error {
	if r.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection keeps PRAGMA foreign_keys in effect for every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := addMissingColumns(ctx, db, "persons", photoColumns); err != nil {
		db.Close()
		return fmt.Errorf("upgrading schema: %w", err)
	}
	r.db = db
	return nil
}

// photoColumns were added to persons after the first schema version.
var photoColumns = []struct{ name, decl string }{
	{"photo_path", "TEXT"},
	{"display_mode", "INTEGER NOT NULL DEFAULT 0"},
	{"photo_scale", "REAL NOT NULL DEFAULT 1"},
}

// addMissingColumns adds any of cols that table lacks.
func addMissingColumns(ctx context.Context, db *sql.DB, table string, cols []struct{ name, decl string }) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		have[name] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, c := range cols {
		if have[c.name] {
			continue
		}
		if _, err := db.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN "+c.name+" "+c.decl); err != nil {
			return fmt.Errorf("adding %s.%s: %w", table, c.name, err)
		}
	}
	return nil
}

// Load reads the tree. A missing file, or a database that was never saved
// to, is NOT_FOUND_FILE.
func (r *SQLiteRepository) Load(ctx context.Context, opts ...tree.Option) (s *tree.Store, report tree.LoadReport, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, r, start, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		if _, statErr := os.Stat(r.path); os.IsNotExist(statErr) {
			return nil, report, notFound(r.path)
		}
	}
	if err := r.open(ctx); err != nil {
		return nil, report, storageError(err, "load %s", r.path)
	}

	var version int
	err = r.db.QueryRowContext(ctx, "SELECT schema_version FROM tree_metadata WHERE id = 1").Scan(&version)
	if err == sql.ErrNoRows {
		return nil, report, notFound(r.path)
	}
	if err != nil {
		return nil, report, storageError(err, "load %s", r.path)
	}
	if version > SchemaVersion {
		return nil, report, errors.New(errors.ErrCodeUnsupported, "%s: schema version %d is newer than %d", r.path, version, SchemaVersion)
	}

	snap, dropped, err := r.readSnapshot(ctx)
	if err != nil {
		return nil, report, storageError(err, "load %s", r.path)
	}
	s, loaded := tree.FromSnapshot(snap, opts...)
	return s, dropped.Add(loaded), nil
}

func (r *SQLiteRepository) readSnapshot(ctx context.Context) (tree.Snapshot, tree.LoadReport, error) {
	var snap tree.Snapshot
	var rep tree.LoadReport

	err := r.query(ctx, `SELECT id, name, gender, birth, memo, position_x, position_y, deceased, death,
		photo_path, display_mode, photo_scale
		FROM persons ORDER BY id`, func(rows *sql.Rows) error {
		var (
			id, name, memo      string
			gender, display     int64
			birth, death, photo sql.NullString
			x, y, scale         float64
			deceased            bool
		)
		if err := rows.Scan(&id, &name, &gender, &birth, &memo, &x, &y, &deceased, &death, &photo, &display, &scale); err != nil {
			return err
		}
		pid, ok := parseID(id)
		if !ok {
			rep.Persons++
			return nil
		}
		snap.Persons = append(snap.Persons, tree.Person{
			ID:       pid,
			Name:     name,
			Gender:   genderFromColumn(gender),
			Birth:    birth.String,
			Deceased: deceased,
			Death:    death.String,
			Memo:     memo,
			Position: tree.Point{X: x, Y: y},

			PhotoPath:  photo.String,
			Display:    displayFromColumn(display),
			PhotoScale: scale,
		})
		return nil
	})
	if err != nil {
		return snap, rep, fmt.Errorf("reading persons: %w", err)
	}

	err = r.query(ctx, "SELECT parent_id, child_id, kind FROM parent_child_edges ORDER BY rowid", func(rows *sql.Rows) error {
		var parent, child, kind string
		if err := rows.Scan(&parent, &child, &kind); err != nil {
			return err
		}
		p, ok1 := parseID(parent)
		c, ok2 := parseID(child)
		if !ok1 || !ok2 {
			rep.Edges++
			return nil
		}
		snap.Edges = append(snap.Edges, tree.ParentChildEdge{Parent: p, Child: c, Kind: tree.ParseEdgeKind(kind)})
		return nil
	})
	if err != nil {
		return snap, rep, fmt.Errorf("reading edges: %w", err)
	}

	err = r.query(ctx, "SELECT person1_id, person2_id, memo FROM spouses ORDER BY rowid", func(rows *sql.Rows) error {
		var a, b, memo string
		if err := rows.Scan(&a, &b, &memo); err != nil {
			return err
		}
		p1, ok1 := parseID(a)
		p2, ok2 := parseID(b)
		if !ok1 || !ok2 {
			rep.Spouses++
			return nil
		}
		snap.Spouses = append(snap.Spouses, tree.SpouseEdge{Person1: p1, Person2: p2, Memo: memo})
		return nil
	})
	if err != nil {
		return snap, rep, fmt.Errorf("reading spouses: %w", err)
	}

	families := make(map[uuid.UUID]int)
	err = r.query(ctx, "SELECT id, name, color_r, color_g, color_b FROM families ORDER BY rowid", func(rows *sql.Rows) error {
		var id, name string
		var cr, cg, cb sql.NullInt64
		if err := rows.Scan(&id, &name, &cr, &cg, &cb); err != nil {
			return err
		}
		fid, ok := parseID(id)
		if !ok {
			rep.Families++
			return nil
		}
		f := tree.Family{ID: fid, Name: name, Color: tree.DefaultFamilyColor}
		if cr.Valid && cg.Valid && cb.Valid {
			f.Color = tree.RGB{uint8(cr.Int64), uint8(cg.Int64), uint8(cb.Int64)}
		}
		families[fid] = len(snap.Families)
		snap.Families = append(snap.Families, f)
		return nil
	})
	if err != nil {
		return snap, rep, fmt.Errorf("reading families: %w", err)
	}

	err = r.query(ctx, "SELECT family_id, person_id FROM family_members ORDER BY rowid", func(rows *sql.Rows) error {
		var fam, person string
		if err := rows.Scan(&fam, &person); err != nil {
			return err
		}
		fid, ok1 := parseID(fam)
		pid, ok2 := parseID(person)
		i, known := families[fid]
		if !ok1 || !ok2 || !known {
			rep.Members++
			return nil
		}
		snap.Families[i].Members = append(snap.Families[i].Members, pid)
		return nil
	})
	if err != nil {
		return snap, rep, fmt.Errorf("reading family members: %w", err)
	}

	err = r.query(ctx, `SELECT id, name, date, description, position_x, position_y, color_r, color_g, color_b
		FROM events ORDER BY id`, func(rows *sql.Rows) error {
		var (
			id, name, desc string
			date           sql.NullString
			x, y           float64
			cr, cg, cb     int64
		)
		if err := rows.Scan(&id, &name, &date, &desc, &x, &y, &cr, &cg, &cb); err != nil {
			return err
		}
		eid, ok := parseID(id)
		if !ok {
			rep.Events++
			return nil
		}
		snap.Events = append(snap.Events, tree.Event{
			ID:          eid,
			Name:        name,
			Date:        date.String,
			Description: desc,
			Color:       tree.RGB{uint8(cr), uint8(cg), uint8(cb)},
			Position:    tree.Point{X: x, Y: y},
		})
		return nil
	})
	if err != nil {
		return snap, rep, fmt.Errorf("reading events: %w", err)
	}

	err = r.query(ctx, "SELECT event_id, person_id, relation_type, memo FROM event_relations ORDER BY rowid", func(rows *sql.Rows) error {
		var ev, person, memo string
		var style int64
		if err := rows.Scan(&ev, &person, &style, &memo); err != nil {
			return err
		}
		eid, ok1 := parseID(ev)
		pid, ok2 := parseID(person)
		if !ok1 || !ok2 {
			rep.Links++
			return nil
		}
		snap.Links = append(snap.Links, tree.EventLink{Event: eid, Person: pid, Style: styleFromColumn(style), Memo: memo})
		return nil
	})
	if err != nil {
		return snap, rep, fmt.Errorf("reading event relations: %w", err)
	}
	return snap, rep, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Save replaces every table in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, snap tree.Snapshot) (err error) {
	start := time.Now()
	defer func() { observeSave(ctx, r, start, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(ctx); err != nil {
		return storageError(err, "save %s", r.path)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(err, "save %s", r.path)
	}
	if err := writeSnapshot(ctx, tx, snap); err != nil {
		tx.Rollback()
		return storageError(err, "save %s", r.path)
	}
	if err := tx.Commit(); err != nil {
		return storageError(fmt.Errorf("committing: %w", err), "save %s", r.path)
	}
	return nil
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, snap tree.Snapshot) error {
	// Children first so foreign keys never dangle mid-transaction.
	for _, table := range []string{"event_relations", "family_members", "spouses", "parent_child_edges", "events", "families", "persons", "tree_metadata"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, p := range snap.Persons {
		_, err := tx.ExecContext(ctx, `INSERT INTO persons (id, name, gender, birth, memo, position_x, position_y, deceased, death,
			photo_path, display_mode, photo_scale)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID.String(), p.Name, genderColumn[p.Gender], nullable(p.Birth), p.Memo,
			p.Position.X, p.Position.Y, p.Deceased, nullable(p.Death),
			nullable(p.PhotoPath), int64(p.Display), p.PhotoScale)
		if err != nil {
			return fmt.Errorf("saving person %s: %w", p.ID, err)
		}
	}
	for _, e := range snap.Edges {
		if _, err := tx.ExecContext(ctx, "INSERT INTO parent_child_edges (parent_id, child_id, kind) VALUES (?, ?, ?)",
			e.Parent.String(), e.Child.String(), e.Kind.String()); err != nil {
			return fmt.Errorf("saving edge: %w", err)
		}
	}
	for _, e := range snap.Spouses {
		if _, err := tx.ExecContext(ctx, "INSERT INTO spouses (person1_id, person2_id, memo) VALUES (?, ?, ?)",
			e.Person1.String(), e.Person2.String(), e.Memo); err != nil {
			return fmt.Errorf("saving spouse: %w", err)
		}
	}
	for _, f := range snap.Families {
		if _, err := tx.ExecContext(ctx, "INSERT INTO families (id, name, color_r, color_g, color_b) VALUES (?, ?, ?, ?, ?)",
			f.ID.String(), f.Name, int64(f.Color[0]), int64(f.Color[1]), int64(f.Color[2])); err != nil {
			return fmt.Errorf("saving family %s: %w", f.ID, err)
		}
		for _, m := range f.Members {
			if _, err := tx.ExecContext(ctx, "INSERT INTO family_members (family_id, person_id) VALUES (?, ?)",
				f.ID.String(), m.String()); err != nil {
				return fmt.Errorf("saving family member: %w", err)
			}
		}
	}
	for _, ev := range snap.Events {
		_, err := tx.ExecContext(ctx, `INSERT INTO events (id, name, date, description, position_x, position_y, color_r, color_g, color_b)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID.String(), ev.Name, nullable(ev.Date), ev.Description,
			ev.Position.X, ev.Position.Y, int64(ev.Color[0]), int64(ev.Color[1]), int64(ev.Color[2]))
		if err != nil {
			return fmt.Errorf("saving event %s: %w", ev.ID, err)
		}
	}
	for _, l := range snap.Links {
		if _, err := tx.ExecContext(ctx, "INSERT INTO event_relations (event_id, person_id, relation_type, memo) VALUES (?, ?, ?, ?)",
			l.Event.String(), l.Person.String(), styleColumn[l.Style], l.Memo); err != nil {
			return fmt.Errorf("saving event link: %w", err)
		}
	}

	_, err := tx.ExecContext(ctx, "INSERT INTO tree_metadata (id, schema_version, updated_at) VALUES (1, ?, ?)",
		SchemaVersion, timeNow().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}
	return nil
}

func genderFromColumn(v int64) tree.Gender {
	for g, c := range genderColumn {
		if c == v {
			return g
		}
	}
	return tree.GenderUnknown
}

func styleFromColumn(v int64) tree.LinkStyle {
	for s, c := range styleColumn {
		if c == v {
			return s
		}
	}
	return tree.StyleLine
}

func displayFromColumn(v int64) tree.DisplayMode {
	if v == int64(tree.DisplayNameAndPhoto) {
		return tree.DisplayNameAndPhoto
	}
	return tree.DisplayNameOnly
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repository = (*SQLiteRepository)(nil)
