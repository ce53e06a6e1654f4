// Package profile implements the write path. Profile text flows through an
// embedder onto a worker pool and into the embedding store; location updates
// are geocoded when given as place names and written to the location store.
package profile
