package storage

import (
	"context"

	"github.com/poiesic/vicinity/core"
)

// LocationMatch is one hit of a radius query: a matchable user together with
// its exact great-circle distance from the query center.
type LocationMatch struct {
	UserID     string
	DistanceKm float64
	Location   *core.UserLocation
}

// LocationRepository persists per-user location records.
// Implementations must be thread-safe and support concurrent access.
// Writes are single-record and atomic; a concurrent reader never observes a
// half-written coordinate pair.
type LocationRepository interface {
	// Upsert replaces the full location record for loc.UserID.
	// Sets UpdatedAt and returns the stored record. Idempotent.
	Upsert(ctx context.Context, loc *core.UserLocation) (*core.UserLocation, error)

	// Get retrieves a location record by user ID.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, userID string) (*core.UserLocation, error)

	// GetMany retrieves location records for a batch of users.
	// Absent users are omitted from the result, not errors.
	GetMany(ctx context.Context, userIDs []string) (map[string]*core.UserLocation, error)

	// Delete removes a location record.
	// Returns ErrNotFound if no record exists.
	Delete(ctx context.Context, userID string) error

	// FindWithinRadius returns users whose stored coordinates lie within
	// radiusKm of center (boundary inclusive), ordered by distance ascending
	// with ties broken by user ID ascending. The user excludeUserID and users
	// that are private or unresolved are never returned.
	FindWithinRadius(ctx context.Context, center core.Coordinates, radiusKm float64, excludeUserID string) ([]LocationMatch, error)

	// Close releases repository resources.
	Close() error
}

// EmbeddingRepository persists per-user interest vectors.
// Implementations must be thread-safe and support concurrent access.
// At most one embedding exists per user at all times.
type EmbeddingRepository interface {
	// Upsert validates the vector length against the deployment dimension and
	// replaces any prior embedding for emb.UserID. CreatedAt is preserved
	// across replacements; UpdatedAt is set on every call.
	Upsert(ctx context.Context, emb *core.UserEmbedding) (*core.UserEmbedding, error)

	// Get retrieves an embedding by user ID.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, userID string) (*core.UserEmbedding, error)

	// GetMany retrieves embeddings for a candidate batch.
	// Absent users are omitted from the result, not errors.
	GetMany(ctx context.Context, userIDs []string) (map[string]*core.UserEmbedding, error)

	// Delete removes an embedding.
	// Returns ErrNotFound if no record exists.
	Delete(ctx context.Context, userID string) error

	// List returns every stored embedding. This is the semantic-only candidate
	// population; the design assumes it stays bounded.
	List(ctx context.Context) ([]*core.UserEmbedding, error)

	// Dimension returns the fixed vector dimension this repository enforces.
	Dimension() int

	// Close releases repository resources.
	Close() error
}
