// Package storage loads and saves family trees in files, SQLite databases,
// Redis and MongoDB.
//
// # Locations
//
// [Open] picks a backend from the location string:
//
//	family.json                          JSON file (the default)
//	family.yaml, family.yml              YAML file
//	family.db, .sqlite, .sqlite3         SQLite database
//	redis://localhost:6379/0#smiths      Redis key famtree:tree:smiths
//	mongodb://localhost/genealogy#smiths MongoDB document "smiths" in genealogy.trees
//
// File and SQLite saves are atomic: a JSON or YAML file is replaced by
// rename, a SQLite save runs in one transaction. Redis and MongoDB retry
// network failures with backoff.
//
// # SQLite schema
//
// The database uses normalized tables (persons, parent_child_edges,
// spouses, families, family_members, events, event_relations) plus a
// single-row tree_metadata table. A database without a metadata row holds
// no tree and loads as NOT_FOUND_FILE.
//
// # Usage
//
//	repo, err := storage.Open("family.db")
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
//	s, report, err := repo.Load(ctx)
//	// ... mutate s ...
//	err = repo.Save(ctx, s.Snapshot())
package storage
