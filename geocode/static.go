package geocode

import (
	"context"
	"fmt"

	"github.com/poiesic/vicinity/core"
)

// StaticResolver is a Resolver backed by a fixed table of places.
// Used in tests and by the seeder; never makes a network call.
type StaticResolver struct {
	places map[string]Result
}

var _ Resolver = (*StaticResolver)(nil)

// NewStaticResolver creates a resolver over a fixed place table.
// Keys are matched after normalization.
func NewStaticResolver(places map[string]core.Coordinates) *StaticResolver {
	table := make(map[string]Result, len(places))
	for place, coords := range places {
		table[normalizePlace(place)] = Result{
			Coordinates: coords,
			DisplayName: normalizePlace(place),
		}
	}
	return &StaticResolver{places: table}
}

// Resolve looks the place up in the fixed table.
func (r *StaticResolver) Resolve(ctx context.Context, place string) (*Result, error) {
	normalized := normalizePlace(place)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnresolved, ErrEmptyPlace)
	}
	result, ok := r.places[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolved, place)
	}
	return &result, nil
}
