package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// CacheKey is a deterministic 64-bit key derived from text content.
// It is used for content-addressed lookups such as the geocode cache.
type CacheKey uint64

// CacheKeyFromContent generates a deterministic key from text using BLAKE2b hashing.
// Identical content always produces the same key.
func CacheKeyFromContent(text string) CacheKey {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return CacheKey(binary.LittleEndian.Uint64(sum))
}

// PrivacyLevel controls how precisely a user's location is shared with matching queries.
type PrivacyLevel int

const (
	// PrivacyExact shares full coordinates.
	PrivacyExact PrivacyLevel = iota + 1
	// PrivacyCity shares city-level location.
	PrivacyCity
	// PrivacyRegion shares region/state-level location.
	PrivacyRegion
	// PrivacyCountry shares country-level location.
	PrivacyCountry
	// PrivacyPrivate hides the user from location-based matching entirely.
	PrivacyPrivate
)

// String returns the wire name of the privacy level.
func (p PrivacyLevel) String() string {
	switch p {
	case PrivacyExact:
		return "exact"
	case PrivacyCity:
		return "city"
	case PrivacyRegion:
		return "region"
	case PrivacyCountry:
		return "country"
	case PrivacyPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// ParsePrivacyLevel parses a privacy level name as produced by String.
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	switch s {
	case "exact":
		return PrivacyExact, nil
	case "city":
		return PrivacyCity, nil
	case "region":
		return PrivacyRegion, nil
	case "country":
		return PrivacyCountry, nil
	case "private":
		return PrivacyPrivate, nil
	default:
		return 0, ErrInvalidPrivacyLevel
	}
}

// Coordinates is a point on Earth's surface.
// Longitude comes first to match the GeoJSON [lng, lat] convention used
// by the persisted layout.
type Coordinates struct {
	Longitude float64
	Latitude  float64
}

// UserLocation is a user's current location record.
// Each update replaces the full record; there are no partial updates.
type UserLocation struct {
	UserID      string
	Coordinates *Coordinates // nil when the location has not been resolved
	Privacy     PrivacyLevel
	Timezone    string
	UpdatedAt   time.Time
}

// Resolved reports whether the record carries usable coordinates.
func (l *UserLocation) Resolved() bool {
	return l != nil && l.Coordinates != nil
}

// Matchable reports whether the user may appear in radius query results.
// Users without resolved coordinates or with PrivacyPrivate never match.
func (l *UserLocation) Matchable() bool {
	return l.Resolved() && l.Privacy != PrivacyPrivate
}

// UserEmbedding is a user's interest vector plus descriptive metadata.
// At most one embedding exists per user; upserts replace the prior vector.
type UserEmbedding struct {
	UserID      string
	Vector      []float32
	ProfileText string            // text the vector was derived from, kept for auditability
	Metadata    map[string]string // display attributes, opaque to the engine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QueryMode selects which relevance signals a query uses.
type QueryMode int

const (
	// ModeLocationOnly ranks candidates by geographic proximity alone.
	ModeLocationOnly QueryMode = iota + 1
	// ModeSemanticOnly ranks candidates by embedding similarity alone.
	ModeSemanticOnly
	// ModeHybrid fuses proximity and similarity with a configurable weight.
	ModeHybrid
)

// String returns the wire name of the query mode.
func (m QueryMode) String() string {
	switch m {
	case ModeLocationOnly:
		return "location_only"
	case ModeSemanticOnly:
		return "semantic_only"
	case ModeHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParseQueryMode parses a query mode name as produced by String.
func ParseQueryMode(s string) (QueryMode, error) {
	switch s {
	case "location_only":
		return ModeLocationOnly, nil
	case "semantic_only":
		return ModeSemanticOnly, nil
	case "hybrid":
		return ModeHybrid, nil
	default:
		return 0, ErrInvalidMode
	}
}

// QueryRequest describes one matching query.
//
// Zero values for RadiusKm, MinSimilarity and MaxResults take the configured
// defaults. LocationWeight is a pointer because 0 is a meaningful weight.
type QueryRequest struct {
	RequesterID    string
	Mode           QueryMode
	QueryVector    []float32    // required unless Mode == ModeLocationOnly
	QueryLocation  *Coordinates // defaults to the requester's stored location
	RadiusKm       float64
	MinSimilarity  float64
	LocationWeight *float64 // meaningful only in hybrid mode
	MaxResults     int
}

// Candidate is an intermediate per-query record, never persisted.
// DistanceKm and Similarity are nil when the corresponding signal was not
// computed for this candidate.
type Candidate struct {
	UserID     string
	DistanceKm *float64
	Similarity *float64 // raw cosine similarity in [-1, 1]
	Metadata   map[string]string
}

// ScoredResult is one ranked entry of a query result.
type ScoredResult struct {
	UserID        string
	DistanceKm    *float64
	Similarity    float64 // clipped to [0, 1]
	CombinedScore float64 // always in [0, 1]
	Metadata      map[string]string
}
