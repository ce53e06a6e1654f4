package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/vicinity/ai/mock"
	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/geocode"
	"github.com/poiesic/vicinity/storage"
	"github.com/poiesic/vicinity/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 8

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.LocationRepository, storage.EmbeddingRepository) {
	t.Helper()
	locationRepo, embeddingRepo, backend, err := badger.NewMemoryRepositories(testDimension)
	require.NoError(t, err)
	t.Cleanup(func() {
		embeddingRepo.Close()
		locationRepo.Close()
		backend.Close()
	})

	pipeline, err := NewPipeline(locationRepo, embeddingRepo, mock.NewMockEmbedder(testDimension), opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline, locationRepo, embeddingRepo
}

func TestNewPipeline(t *testing.T) {
	locationRepo, embeddingRepo, backend, err := badger.NewMemoryRepositories(testDimension)
	require.NoError(t, err)
	defer func() {
		embeddingRepo.Close()
		locationRepo.Close()
		backend.Close()
	}()
	embedder := mock.NewMockEmbedder(testDimension)

	t.Run("valid", func(t *testing.T) {
		p, err := NewPipeline(locationRepo, embeddingRepo, embedder)
		require.NoError(t, err)
		p.Release()
	})

	t.Run("with pool size", func(t *testing.T) {
		p, err := NewPipeline(locationRepo, embeddingRepo, embedder, WithPoolSize(2))
		require.NoError(t, err)
		p.Release()
	})

	t.Run("nil location repository", func(t *testing.T) {
		_, err := NewPipeline(nil, embeddingRepo, embedder)
		assert.Equal(t, ErrLocationRepositoryRequired, err)
	})

	t.Run("nil embedding repository", func(t *testing.T) {
		_, err := NewPipeline(locationRepo, nil, embedder)
		assert.Equal(t, ErrEmbeddingRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(locationRepo, embeddingRepo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestSetProfileSync(t *testing.T) {
	pipeline, _, embeddingRepo := newTestPipeline(t)
	ctx := context.Background()

	err := pipeline.SetProfileSync(ctx, "u1", "amateur astronomer and baker", &ProfileOptions{
		Metadata: map[string]string{"display_name": "Vera"},
	})
	require.NoError(t, err)

	emb, err := embeddingRepo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, emb.Vector, testDimension)
	assert.Equal(t, "amateur astronomer and baker", emb.ProfileText)
	assert.Equal(t, "Vera", emb.Metadata["display_name"])

	t.Run("same text same vector", func(t *testing.T) {
		require.NoError(t, pipeline.SetProfileSync(ctx, "u2", "amateur astronomer and baker", nil))
		other, err := embeddingRepo.Get(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, emb.Vector, other.Vector)
	})

	t.Run("empty user id", func(t *testing.T) {
		assert.ErrorIs(t, pipeline.SetProfileSync(ctx, "", "text", nil), core.ErrEmptyUserID)
	})

	t.Run("empty profile text", func(t *testing.T) {
		assert.ErrorIs(t, pipeline.SetProfileSync(ctx, "u1", "", nil), ErrEmptyProfileText)
	})

	t.Run("embedder failure surfaces", func(t *testing.T) {
		broken := mock.NewMockEmbedder(testDimension)
		broken.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}
		locationRepo, embeddingRepo, backend, err := badger.NewMemoryRepositories(testDimension)
		require.NoError(t, err)
		defer backend.Close()

		p, err := NewPipeline(locationRepo, embeddingRepo, broken)
		require.NoError(t, err)
		defer p.Release()

		assert.Error(t, p.SetProfileSync(ctx, "u9", "text", nil))
	})
}

func TestSetProfileAsync(t *testing.T) {
	pipeline, _, embeddingRepo := newTestPipeline(t, WithPoolSize(1))
	ctx := context.Background()

	require.NoError(t, pipeline.SetProfile(ctx, "u1", "mountain biker", nil))

	// The pool processes the job asynchronously.
	require.Eventually(t, func() bool {
		_, err := embeddingRepo.Get(ctx, "u1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	t.Run("validation is synchronous", func(t *testing.T) {
		assert.ErrorIs(t, pipeline.SetProfile(ctx, "", "text", nil), core.ErrEmptyUserID)
		assert.ErrorIs(t, pipeline.SetProfile(ctx, "u1", "", nil), ErrEmptyProfileText)
	})

	t.Run("released pool rejects new jobs", func(t *testing.T) {
		p, _, _ := newTestPipeline(t)
		p.Release()
		assert.Error(t, p.SetProfile(ctx, "u2", "long distance swimmer", nil))
	})
}

func TestUpdateLocation(t *testing.T) {
	places := map[string]core.Coordinates{
		"berlin": {Longitude: 13.405, Latitude: 52.52},
	}

	t.Run("raw coordinates", func(t *testing.T) {
		pipeline, locationRepo, _ := newTestPipeline(t)
		ctx := context.Background()

		outcome, err := pipeline.UpdateLocation(ctx, &LocationUpdate{
			UserID:      "u1",
			Coordinates: &core.Coordinates{Longitude: 2.3522, Latitude: 48.8566},
			Privacy:     core.PrivacyExact,
			Timezone:    "Europe/Paris",
		})
		require.NoError(t, err)
		assert.False(t, outcome.Geocoded)
		assert.False(t, outcome.RetainedPrior)

		got, err := locationRepo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 48.8566, got.Coordinates.Latitude)
		assert.Equal(t, "Europe/Paris", got.Timezone)
	})

	t.Run("place name geocoded", func(t *testing.T) {
		pipeline, locationRepo, _ := newTestPipeline(t, WithResolver(geocode.NewStaticResolver(places)))
		ctx := context.Background()

		outcome, err := pipeline.UpdateLocation(ctx, &LocationUpdate{
			UserID:  "u1",
			Place:   "Berlin",
			Privacy: core.PrivacyCity,
		})
		require.NoError(t, err)
		assert.True(t, outcome.Geocoded)

		got, err := locationRepo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 52.52, got.Coordinates.Latitude)
	})

	t.Run("geocode failure retains prior coordinates", func(t *testing.T) {
		pipeline, locationRepo, _ := newTestPipeline(t, WithResolver(geocode.NewStaticResolver(places)))
		ctx := context.Background()

		_, err := pipeline.UpdateLocation(ctx, &LocationUpdate{
			UserID:  "u1",
			Place:   "Berlin",
			Privacy: core.PrivacyExact,
		})
		require.NoError(t, err)

		outcome, err := pipeline.UpdateLocation(ctx, &LocationUpdate{
			UserID:  "u1",
			Place:   "no such town",
			Privacy: core.PrivacyCity,
		})
		require.NoError(t, err)
		assert.True(t, outcome.RetainedPrior)
		assert.ErrorIs(t, outcome.Warning, geocode.ErrUnresolved)

		got, err := locationRepo.Get(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got.Coordinates)
		assert.Equal(t, 52.52, got.Coordinates.Latitude)
		assert.Equal(t, core.PrivacyCity, got.Privacy)
	})

	t.Run("geocode failure with no prior record stores unresolved", func(t *testing.T) {
		pipeline, locationRepo, _ := newTestPipeline(t, WithResolver(geocode.NewStaticResolver(places)))
		ctx := context.Background()

		outcome, err := pipeline.UpdateLocation(ctx, &LocationUpdate{
			UserID:  "fresh",
			Place:   "no such town",
			Privacy: core.PrivacyExact,
		})
		require.NoError(t, err)
		assert.True(t, outcome.RetainedPrior)

		got, err := locationRepo.Get(ctx, "fresh")
		require.NoError(t, err)
		assert.Nil(t, got.Coordinates)
	})

	t.Run("coordinates take priority over place", func(t *testing.T) {
		pipeline, locationRepo, _ := newTestPipeline(t, WithResolver(geocode.NewStaticResolver(places)))
		ctx := context.Background()

		_, err := pipeline.UpdateLocation(ctx, &LocationUpdate{
			UserID:      "u1",
			Coordinates: &core.Coordinates{Longitude: 0, Latitude: 0},
			Place:       "Berlin",
			Privacy:     core.PrivacyExact,
		})
		require.NoError(t, err)

		got, err := locationRepo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0.0, got.Coordinates.Latitude)
	})

	t.Run("no position at all", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)
		_, err := pipeline.UpdateLocation(context.Background(), &LocationUpdate{
			UserID:  "u1",
			Privacy: core.PrivacyExact,
		})
		assert.ErrorIs(t, err, ErrNoPosition)
	})

	t.Run("place without a resolver", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)
		_, err := pipeline.UpdateLocation(context.Background(), &LocationUpdate{
			UserID:  "u1",
			Place:   "Berlin",
			Privacy: core.PrivacyExact,
		})
		assert.ErrorIs(t, err, ErrNoPosition)
	})

	t.Run("invalid privacy level", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)
		_, err := pipeline.UpdateLocation(context.Background(), &LocationUpdate{
			UserID:      "u1",
			Coordinates: &core.Coordinates{Longitude: 0, Latitude: 0},
			Privacy:     core.PrivacyLevel(99),
		})
		assert.ErrorIs(t, err, core.ErrInvalidPrivacyLevel)
	})

	t.Run("empty user id", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)
		_, err := pipeline.UpdateLocation(context.Background(), nil)
		assert.ErrorIs(t, err, core.ErrEmptyUserID)
	})
}

func TestRemoveLocation(t *testing.T) {
	pipeline, locationRepo, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := pipeline.UpdateLocation(ctx, &LocationUpdate{
		UserID:      "u1",
		Coordinates: &core.Coordinates{Longitude: 0, Latitude: 0},
		Privacy:     core.PrivacyExact,
	})
	require.NoError(t, err)

	require.NoError(t, pipeline.RemoveLocation(ctx, "u1"))
	_, err = locationRepo.Get(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	t.Run("removing an absent location is not an error", func(t *testing.T) {
		assert.NoError(t, pipeline.RemoveLocation(ctx, "u1"))
	})

	t.Run("empty user id", func(t *testing.T) {
		assert.ErrorIs(t, pipeline.RemoveLocation(ctx, ""), core.ErrEmptyUserID)
	})
}
