// Package tree provides the genealogy graph: persons, parent-child edges,
// spouse edges, families, events and event links.
//
// # Overview
//
// A [Store] is the single owner of every entity. Persons and events are
// keyed by stable uuid identifiers, and relationships reference those ids
// instead of owning each other, so traversals (ancestry checks, generation
// layering) can walk the graph freely.
//
// # Basic Usage
//
// Create a store with [New], add persons with [Store.AddPerson] and connect
// them with [Store.AddParentChild] and [Store.AddSpouse]:
//
//	s := tree.New()
//	a, _ := s.AddPerson(tree.Person{Name: "Ada"})
//	b, _ := s.AddPerson(tree.Person{Name: "Byron"})
//	if err := s.AddParentChild(a, b, tree.KindBiological); err != nil {
//	    // typed rejection, the store is unchanged
//	}
//
// Removing a person cascades: every edge, spouse pair, event link and
// family membership that references it disappears with it.
//
// # Validation
//
// Edge mutations are gatekept by the store's [Validator]. It rejects
// self-parentage, edges that would make a person its own ancestor,
// duplicate (parent, child, kind) edges and duplicate spouse pairs in
// either order. Rejections carry STRUCTURAL_* codes from
// [github.com/matzehuels/famtree/pkg/errors].
//
// # Positions and Pins
//
// Every person and event carries a [Point] and a [PinState]. The layout
// engine writes through [Store.PlaceNode], which ignores pinned nodes;
// user drags go through [Store.MoveNode], which pins. [Store.UnpinAll]
// hands every node back to the engine.
//
// # Layout Staleness
//
// Adding or removing persons, parent-child edges, spouse edges, events or
// event links marks the store layout-stale. Callers check
// [Store.LayoutStale] to decide whether to run the layout engine, which
// clears the flag with [Store.MarkLayoutFresh].
//
// # Persistence
//
// [Store.Snapshot] and [FromSnapshot] convert to and from plain data for
// the persistence packages. Loading is lenient: dangling or duplicate
// records are dropped and counted in a [LoadReport], and every loaded node
// is pinned at its stored position.
//
// # Concurrency
//
// Store is not safe for concurrent use. There is exactly one mutator at a
// time; front-ends that serve several goroutines wrap it in a mutex.
package tree
