// Package io provides JSON and YAML import and export for family trees.
//
// # Overview
//
// A tree file is a single document holding persons keyed by id plus flat
// lists of relationships. The format is the one written by earlier releases
// of the desktop application, extended with optional events:
//
//	{
//	  "persons": {
//	    "6f1c...": {"id": "6f1c...", "name": "Hana", "gender": "Female",
//	                "birth": "1921-04-02", "deceased": true, "death": null,
//	                "memo": "", "position": [120, 0]}
//	  },
//	  "edges":    [{"parent": "6f1c...", "child": "9a0e...", "kind": "biological"}],
//	  "spouses":  [{"person1": "6f1c...", "person2": "7b3d...", "memo": "m. 1940"}],
//	  "families": [{"id": "...", "name": "Sato", "members": ["6f1c..."], "color": [100, 150, 255]}],
//	  "events":   {"c2d4...": {"id": "c2d4...", "name": "Emigration", "date": "1952",
//	                "description": "", "color": [255, 200, 100], "position": [0, 390]}},
//	  "event_links": [{"event": "c2d4...", "person": "6f1c...", "style": "arrow-to-person", "memo": ""}]
//	}
//
// # Fields
//
//   - gender: "Male", "Female" or "Unknown" (any casing; unknown text is Unknown)
//   - kind: "biological", "adoptive" or any other text (read as "other")
//   - birth, death, date: free-form strings, null when unknown
//   - color: [r, g, b], null for the default color
//   - style: "line", "arrow-to-person" or "arrow-from-person"
//
// Files that use the older "event_relations" list with a "relation_type"
// field are read as well.
//
// # Import
//
// Use [ImportJSON] to read a tree from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	s, report, err := io.ImportJSON("family.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if report.Total() > 0 {
//	    log.Warn(report)
//	}
//
// Loading is lenient: dangling or duplicate records are dropped and counted
// in the [tree.LoadReport], and ancestry cycles are kept for the layout
// engine to report. Only a document that cannot be decoded at all fails,
// with an INVALID_FORMAT error. Every loaded position is pinned until the
// layout is reset.
//
// # Export
//
// Use [ExportJSON] to write a tree to a file, or [WriteJSON] to write to any
// io.Writer. Files are replaced atomically. [ReadYAML] and [WriteYAML]
// carry the same document as YAML.
package io
