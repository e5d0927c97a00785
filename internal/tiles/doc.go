// Package tiles maps node positions onto fixed-precision geohash tiles and
// drives lazy tile loading.
//
// Responsibilities: computing a node's covering tile set (home tile plus
// edge and corner neighbours within a proximity threshold), tracking which
// tiles have been loaded, and loading tiles concurrently into an Ingester.
// Key types: Coverage, LoadedSet, Loader.
//
// Dependency rule: tiles depends on geometry, navdata, config, monitoring and
// metrics; it never imports graph. The graph satisfies Ingester.
package tiles
