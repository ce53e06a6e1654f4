package geocode

import (
	"context"
	"strings"

	"github.com/poiesic/vicinity/core"
)

// Result is a successful place resolution.
type Result struct {
	Coordinates core.Coordinates
	DisplayName string // normalized display form of the resolved place
}

// Resolver resolves a free-form place description (city/state/country, full
// address, or landmark name) to coordinates.
//
// Implementations must return an error wrapping ErrUnresolved for any
// failure to resolve (place not found, service timeout, rate limit) rather
// than a fatal error; callers recover by falling back to previously stored
// coordinates.
type Resolver interface {
	Resolve(ctx context.Context, place string) (*Result, error)
}

// normalizePlace canonicalizes a place description for cache lookup:
// lowercase with collapsed whitespace.
func normalizePlace(place string) string {
	return strings.ToLower(strings.Join(strings.Fields(place), " "))
}
