// Package search implements the hybrid query engine: request validation,
// geographic candidate narrowing, embedding similarity scoring and the
// deterministic score fusion that ranks results.
package search
