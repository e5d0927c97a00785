// Package graph owns the navigation graph: photo nodes, capture sequences,
// the spatial index over node positions, and the fetch and fill lifecycle.
//
// Responsibilities: tile ingestion, worthiness promotion as covering tiles
// load, on-demand edge computation through edge.Calculator, single-node
// fetch and fill against a navdata.Provider, and change notification.
// Key types: Graph, Node, Sequence, PreconditionError.
//
// Concurrency: a Graph serialises every mutation behind one mutex. Provider
// calls made by Fetch and Fill run without the lock held, and subscribers
// are notified after it is released.
//
// Dependency rule: graph depends on edge, spatial, tiles, geometry, navdata,
// config, monitoring and metrics. Nothing below graph imports it.
package graph
