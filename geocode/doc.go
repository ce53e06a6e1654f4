// Package geocode resolves free-form place descriptions to coordinates.
// Resolution failures are soft: callers fall back to previously stored
// coordinates instead of failing the enclosing operation.
package geocode
