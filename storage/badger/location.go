package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/storage"
)

// LocationRepository implements storage.LocationRepository for BadgerDB.
// Matchable records (resolved coordinates, not private) are additionally
// indexed under geohash keys so radius queries scan only intersecting cells.
type LocationRepository struct {
	backend *Backend
}

var _ storage.LocationRepository = (*LocationRepository)(nil)

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(backend *Backend) *LocationRepository {
	return &LocationRepository{backend: backend}
}

// Close releases repository resources.
func (r *LocationRepository) Close() error {
	return nil
}

// Upsert replaces the full location record for loc.UserID.
func (r *LocationRepository) Upsert(ctx context.Context, loc *core.UserLocation) (*core.UserLocation, error) {
	if err := core.ValidateUserLocation(loc); err != nil {
		return nil, err
	}

	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		key := makeLocationKey(loc.UserID)

		// Drop the old index entry before the record is replaced.
		old, err := r.readLocation(tx, key)
		if err != nil {
			return err
		}
		if old.Matchable() {
			if err := tx.Delete(makeGeoIndexKey(*old.Coordinates, old.UserID)); err != nil {
				return err
			}
		}

		loc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalUserLocation(loc)); err != nil {
			return err
		}
		if loc.Matchable() {
			if err := tx.Set(makeGeoIndexKey(*loc.Coordinates, loc.UserID), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return loc, err
}

// Get retrieves a location record by user ID.
func (r *LocationRepository) Get(ctx context.Context, userID string) (*core.UserLocation, error) {
	var result *core.UserLocation
	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = r.readLocation(tx, makeLocationKey(userID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMany retrieves location records for a batch of users.
// Absent users are simply omitted.
func (r *LocationRepository) GetMany(ctx context.Context, userIDs []string) (map[string]*core.UserLocation, error) {
	result := make(map[string]*core.UserLocation, len(userIDs))
	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		for _, id := range userIDs {
			loc, err := r.readLocation(tx, makeLocationKey(id))
			if err != nil {
				return err
			}
			if loc != nil {
				result[id] = loc
			}
		}
		return nil
	}, false)
	return result, err
}

// Delete removes a location record and its index entry.
func (r *LocationRepository) Delete(ctx context.Context, userID string) error {
	return r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		key := makeLocationKey(userID)
		loc, err := r.readLocation(tx, key)
		if err != nil {
			return err
		}
		if loc == nil {
			return storage.ErrNotFound
		}
		if loc.Matchable() {
			if err := tx.Delete(makeGeoIndexKey(*loc.Coordinates, loc.UserID)); err != nil {
				return err
			}
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindWithinRadius returns matchable users within radiusKm of center,
// boundary inclusive, ordered by distance ascending then user ID ascending.
func (r *LocationRepository) FindWithinRadius(ctx context.Context, center core.Coordinates, radiusKm float64, excludeUserID string) ([]storage.LocationMatch, error) {
	if err := core.ValidateCoordinates(center); err != nil {
		return nil, err
	}

	cells, ok := coverCells(center, radiusKm)
	if !ok {
		return r.findWithinRadiusScan(ctx, center, radiusKm, excludeUserID)
	}

	var matches []storage.LocationMatch
	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		seen := make(map[string]bool)
		for _, cell := range cells {
			prefix := makePartialGeoIndexKey(cell)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)

			for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
				userID := userIDFromGeoIndexKey(iter.Item().Key())
				if userID == "" || userID == excludeUserID || seen[userID] {
					continue
				}
				seen[userID] = true

				loc, err := r.readLocation(tx, makeLocationKey(userID))
				if err != nil {
					iter.Close()
					return err
				}
				if m, ok := matchWithin(loc, center, radiusKm); ok {
					matches = append(matches, m)
				}
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortMatches(matches)
	return matches, nil
}

// findWithinRadiusScan is the de-optimized fallback: a full pass over every
// location record. Must produce results identical to the indexed path.
func (r *LocationRepository) findWithinRadiusScan(ctx context.Context, center core.Coordinates, radiusKm float64, excludeUserID string) ([]storage.LocationMatch, error) {
	var matches []storage.LocationMatch
	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		prefix := []byte(locationPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var loc *core.UserLocation
			err := iter.Item().Value(func(val []byte) error {
				var err error
				loc, err = storage.UnmarshalUserLocation(val)
				return err
			})
			if err != nil {
				return err
			}
			if loc == nil || loc.UserID == excludeUserID {
				continue
			}
			if m, ok := matchWithin(loc, center, radiusKm); ok {
				matches = append(matches, m)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortMatches(matches)
	return matches, nil
}

// matchWithin applies the visibility and exact distance checks shared by the
// indexed and scan paths.
func matchWithin(loc *core.UserLocation, center core.Coordinates, radiusKm float64) (storage.LocationMatch, bool) {
	if !loc.Matchable() {
		return storage.LocationMatch{}, false
	}
	distance := core.HaversineKm(center, *loc.Coordinates)
	if distance > radiusKm {
		return storage.LocationMatch{}, false
	}
	return storage.LocationMatch{
		UserID:     loc.UserID,
		DistanceKm: distance,
		Location:   loc,
	}, true
}

// sortMatches orders by distance ascending, ties broken by user ID ascending
// so results are deterministic.
func sortMatches(matches []storage.LocationMatch) {
	slices.SortFunc(matches, func(a, b storage.LocationMatch) int {
		if a.DistanceKm < b.DistanceKm {
			return -1
		}
		if a.DistanceKm > b.DistanceKm {
			return 1
		}
		if a.UserID < b.UserID {
			return -1
		}
		if a.UserID > b.UserID {
			return 1
		}
		return 0
	})
}

// readLocation reads a location record from the transaction.
// Returns nil without error when the key is absent.
func (r *LocationRepository) readLocation(tx *badger.Txn, key []byte) (*core.UserLocation, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var loc *core.UserLocation
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		loc, unmarshalErr = storage.UnmarshalUserLocation(val)
		return unmarshalErr
	})
	return loc, err
}
