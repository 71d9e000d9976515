// Package layout assigns generation tiers and canvas positions to a
// genealogy graph.
//
// # Generations
//
// [Generations] layers persons with Kahn's algorithm: persons without
// recorded parents are generation 0 and everyone else sits one tier below
// their deepest parent. A parentless person who married into the tree is
// leveled with their spouse. Persons on or below an ancestry cycle (only
// possible in hand-edited files) fall back to generation 0 and are reported
// in [Result.Degraded].
//
// # Ordering
//
// Within a tier, spouses form clusters that are kept side by side. Clusters
// are reordered with alternating barycenter sweeps and the arrangement with
// the fewest parent-child crossings (counted with a Fenwick tree) wins.
//
// # Pins
//
// Nodes a user placed by hand are pinned. The engine never moves them;
// instead they anchor the packing of their tier. [Engine.Reset] unpins
// everything and lays the tree out from scratch.
//
// # Photos
//
// A person shown with a photo is taller than a plain node. [Config.PersonSize]
// derives the height from the image header, and a tier holding such a node
// pushes the tiers below it down.
//
// # Usage
//
//	eng := layout.New(layout.WithLogger(logger))
//	res := eng.Apply(store)
//	if err := res.Warning(); err != nil {
//	    logger.Warn(err)
//	}
package layout
