// Package pkg provides the libraries behind famtree, a family tree editor.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. Domain: [tree] (entity store and relationship validator), [layout]
//     (generation tiers and node placement), [canvas] (viewport, grid and
//     pointer gestures)
//  2. Persistence: [io] (JSON and YAML documents), [storage] (file, SQLite,
//     Redis and MongoDB repositories), [settings] (user preferences)
//  3. Output: [render/svg], [render/nodelink] and [render] (PDF and PNG
//     conversion), orchestrated by [pipeline] with the [cache] of rendered
//     artifacts
//  4. Front-ends: [session] (one open tree with a single mutator) and
//     [server] (HTTP API)
//
// # Architecture
//
// The typical data flow:
//
//	storage.Open(location)
//	         ↓
//	    [tree.Store] (persons, edges, spouses, families, events)
//	         ↓
//	    [layout.Engine] (generations + positions)
//	         ↓
//	    [render/svg], [render/nodelink]
//	         ↓
//	    SVG/PDF/PNG/DOT output
//
// # Quick Start
//
//	sess, _, err := session.Open(ctx, "family.json")
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	err = sess.Do(func(s *tree.Store) error {
//	    _, err := s.AddPerson(tree.Person{Name: "Sato Taro"})
//	    return err
//	})
//	svgBytes := svg.Render(sess.Store)
//
// # Errors
//
// Domain failures carry an [errors.Code] such as NOT_FOUND_PERSON or
// STRUCTURAL_CYCLE; [errors.Is] tests for one.
//
// # Observability
//
// [observability] defines hooks for store mutations, layout runs and
// storage round trips. They are no-ops until a binary registers an
// implementation.
package pkg
