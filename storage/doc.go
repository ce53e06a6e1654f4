// Package storage defines the repository contracts for user locations and
// interest embeddings, plus the binary serialization used by backends.
// The badger subpackage provides the BadgerDB implementation.
package storage
