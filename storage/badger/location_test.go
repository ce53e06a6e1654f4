package badger

import (
	"context"
	"testing"

	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func storeLocation(t *testing.T, repo *LocationRepository, userID string, lng, lat float64, privacy core.PrivacyLevel) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), &core.UserLocation{
		UserID:      userID,
		Coordinates: &core.Coordinates{Longitude: lng, Latitude: lat},
		Privacy:     privacy,
	})
	require.NoError(t, err)
}

func TestLocationRepository_UpsertGet(t *testing.T) {
	repo := NewLocationRepository(newTestBackend(t))
	ctx := context.Background()

	loc := &core.UserLocation{
		UserID:      "u1",
		Coordinates: &core.Coordinates{Longitude: -0.1276, Latitude: 51.5072},
		Privacy:     core.PrivacyExact,
		Timezone:    "Europe/London",
	}

	stored, err := repo.Upsert(ctx, loc)
	require.NoError(t, err)
	assert.False(t, stored.UpdatedAt.IsZero())

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.Coordinates)
	assert.Equal(t, 51.5072, got.Coordinates.Latitude)
	assert.Equal(t, "Europe/London", got.Timezone)

	t.Run("upsert replaces the full record", func(t *testing.T) {
		_, err := repo.Upsert(ctx, &core.UserLocation{
			UserID:  "u1",
			Privacy: core.PrivacyPrivate,
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got.Coordinates)
		assert.Equal(t, core.PrivacyPrivate, got.Privacy)
		assert.Empty(t, got.Timezone)
	})

	t.Run("invalid record rejected", func(t *testing.T) {
		_, err := repo.Upsert(ctx, &core.UserLocation{UserID: "", Privacy: core.PrivacyExact})
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestLocationRepository_GetMissing(t *testing.T) {
	repo := NewLocationRepository(newTestBackend(t))

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocationRepository_GetMany(t *testing.T) {
	repo := NewLocationRepository(newTestBackend(t))
	ctx := context.Background()

	storeLocation(t, repo, "a", 0, 0, core.PrivacyExact)
	storeLocation(t, repo, "b", 1, 1, core.PrivacyExact)

	got, err := repo.GetMany(ctx, []string{"a", "b", "ghost"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
	assert.NotContains(t, got, "ghost")
}

func TestLocationRepository_Delete(t *testing.T) {
	repo := NewLocationRepository(newTestBackend(t))
	ctx := context.Background()

	storeLocation(t, repo, "u1", 0, 0, core.PrivacyExact)

	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	t.Run("deleting an absent record", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, "u1"), storage.ErrNotFound)
	})

	t.Run("deleted users leave the spatial index", func(t *testing.T) {
		center := core.Coordinates{Longitude: 0, Latitude: 0}
		matches, err := repo.FindWithinRadius(ctx, center, 50, "")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestLocationRepository_FindWithinRadius(t *testing.T) {
	repo := NewLocationRepository(newTestBackend(t))
	ctx := context.Background()
	center := core.Coordinates{Longitude: 0, Latitude: 0}

	// Distances from the origin along the meridian:
	// 0.01 deg of latitude is about 1.11 km, 1 deg about 111.2 km.
	storeLocation(t, repo, "requester", 0, 0, core.PrivacyExact)
	storeLocation(t, repo, "near", 0, 0.01, core.PrivacyExact)
	storeLocation(t, repo, "nearer", 0, 0.005, core.PrivacyExact)
	storeLocation(t, repo, "far", 0, 1, core.PrivacyExact)
	storeLocation(t, repo, "hidden", 0, 0.002, core.PrivacyPrivate)

	_, err := repo.Upsert(ctx, &core.UserLocation{UserID: "unresolved", Privacy: core.PrivacyExact})
	require.NoError(t, err)

	t.Run("radius narrows and orders by distance", func(t *testing.T) {
		matches, err := repo.FindWithinRadius(ctx, center, 50, "requester")
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "nearer", matches[0].UserID)
		assert.Equal(t, "near", matches[1].UserID)
		assert.Less(t, matches[0].DistanceKm, matches[1].DistanceKm)
	})

	t.Run("requester is excluded", func(t *testing.T) {
		matches, err := repo.FindWithinRadius(ctx, center, 50, "requester")
		require.NoError(t, err)
		for _, m := range matches {
			assert.NotEqual(t, "requester", m.UserID)
		}
	})

	t.Run("requester with no exclusion appears at distance zero", func(t *testing.T) {
		matches, err := repo.FindWithinRadius(ctx, center, 50, "")
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "requester", matches[0].UserID)
		assert.Equal(t, 0.0, matches[0].DistanceKm)
	})

	t.Run("private and unresolved users never match", func(t *testing.T) {
		matches, err := repo.FindWithinRadius(ctx, center, 200, "requester")
		require.NoError(t, err)
		for _, m := range matches {
			assert.NotEqual(t, "hidden", m.UserID)
			assert.NotEqual(t, "unresolved", m.UserID)
		}
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		exact := core.HaversineKm(center, core.Coordinates{Longitude: 0, Latitude: 0.01})
		matches, err := repo.FindWithinRadius(ctx, center, exact, "requester")
		require.NoError(t, err)
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.UserID
		}
		assert.Contains(t, ids, "near")
	})

	t.Run("equidistant ties break by user id", func(t *testing.T) {
		storeLocation(t, repo, "twin-b", 0.01, 0, core.PrivacyExact)
		storeLocation(t, repo, "twin-a", 0.01, 0, core.PrivacyExact)

		matches, err := repo.FindWithinRadius(ctx, center, 5, "requester")
		require.NoError(t, err)
		var twins []string
		for _, m := range matches {
			if m.UserID == "twin-a" || m.UserID == "twin-b" {
				twins = append(twins, m.UserID)
			}
		}
		assert.Equal(t, []string{"twin-a", "twin-b"}, twins)
	})

	t.Run("moving a user updates the index", func(t *testing.T) {
		storeLocation(t, repo, "near", 0, 5, core.PrivacyExact)

		matches, err := repo.FindWithinRadius(ctx, center, 50, "requester")
		require.NoError(t, err)
		for _, m := range matches {
			assert.NotEqual(t, "near", m.UserID)
		}
	})
}

func TestLocationRepository_ContextAndClosedStore(t *testing.T) {
	t.Run("done context short-circuits reads and writes", func(t *testing.T) {
		repo := NewLocationRepository(newTestBackend(t))
		storeLocation(t, repo, "u1", 0, 0, core.PrivacyExact)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.Get(ctx, "u1")
		assert.ErrorIs(t, err, context.Canceled)

		_, err = repo.FindWithinRadius(ctx, core.Coordinates{}, 50, "")
		assert.ErrorIs(t, err, context.Canceled)

		_, err = repo.Upsert(ctx, &core.UserLocation{
			UserID:      "u2",
			Coordinates: &core.Coordinates{Longitude: 1, Latitude: 1},
			Privacy:     core.PrivacyExact,
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed store is reported", func(t *testing.T) {
		backend, err := OpenBackend("", true)
		require.NoError(t, err)
		repo := NewLocationRepository(backend)
		require.NoError(t, backend.Close())

		_, err = repo.Get(context.Background(), "u1")
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
	})
}

func TestLocationRepository_ScanFallbackEquivalence(t *testing.T) {
	repo := NewLocationRepository(newTestBackend(t))
	ctx := context.Background()
	center := core.Coordinates{Longitude: 13.405, Latitude: 52.52}

	storeLocation(t, repo, "berlin", 13.405, 52.52, core.PrivacyExact)
	storeLocation(t, repo, "potsdam", 13.0645, 52.3906, core.PrivacyExact)
	storeLocation(t, repo, "hamburg", 9.9937, 53.5511, core.PrivacyExact)
	storeLocation(t, repo, "lisbon", -9.1393, 38.7223, core.PrivacyExact)
	storeLocation(t, repo, "ghost", 13.41, 52.53, core.PrivacyPrivate)

	for _, radius := range []float64{30, 300, 3000} {
		indexed, err := repo.FindWithinRadius(ctx, center, radius, "")
		require.NoError(t, err)
		scanned, err := repo.findWithinRadiusScan(ctx, center, radius, "")
		require.NoError(t, err)
		assert.Equal(t, scanned, indexed, "radius %v", radius)
	}

	t.Run("continental radius falls back to scan", func(t *testing.T) {
		matches, err := repo.FindWithinRadius(ctx, center, 6000, "")
		require.NoError(t, err)
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.UserID
		}
		assert.Equal(t, []string{"berlin", "potsdam", "hamburg", "lisbon"}, ids)
	})
}
