// Package core defines the domain model for hybrid geospatial-semantic user
// matching: location and embedding records, query requests and results, the
// shared distance and similarity math, and record serialization.
package core
