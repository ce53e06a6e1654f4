package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/vicinity/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestNominatimResolver_Resolve(t *testing.T) {
	body := `[{"lat":"52.5170365","lon":"13.3888599","display_name":"Berlin, Deutschland"}]`
	server, calls := newTestServer(t, body, http.StatusOK)

	resolver := NewNominatimResolver(
		WithBaseURL(server.URL),
		WithRateLimit(rate.Inf),
	)

	result, err := resolver.Resolve(context.Background(), "Berlin")
	require.NoError(t, err)
	assert.InDelta(t, 52.5170365, result.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, 13.3888599, result.Coordinates.Longitude, 1e-9)
	assert.Equal(t, "Berlin, Deutschland", result.DisplayName)
	assert.Equal(t, int64(1), calls.Load())

	t.Run("repeat served from cache", func(t *testing.T) {
		again, err := resolver.Resolve(context.Background(), "Berlin")
		require.NoError(t, err)
		assert.Equal(t, result, again)
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("normalization shares cache entries", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "  BERLIN  ")
		require.NoError(t, err)
		assert.Equal(t, int64(1), calls.Load())
	})
}

func TestNominatimResolver_Failures(t *testing.T) {
	t.Run("empty place", func(t *testing.T) {
		resolver := NewNominatimResolver()
		_, err := resolver.Resolve(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrUnresolved)
		assert.ErrorIs(t, err, ErrEmptyPlace)
	})

	t.Run("no results", func(t *testing.T) {
		server, _ := newTestServer(t, `[]`, http.StatusOK)
		resolver := NewNominatimResolver(WithBaseURL(server.URL), WithRateLimit(rate.Inf))

		_, err := resolver.Resolve(context.Background(), "nowhere at all")
		assert.ErrorIs(t, err, ErrUnresolved)
	})

	t.Run("upstream error status", func(t *testing.T) {
		server, _ := newTestServer(t, ``, http.StatusServiceUnavailable)
		resolver := NewNominatimResolver(WithBaseURL(server.URL), WithRateLimit(rate.Inf))

		_, err := resolver.Resolve(context.Background(), "berlin")
		assert.ErrorIs(t, err, ErrUnresolved)
	})

	t.Run("malformed coordinates", func(t *testing.T) {
		server, _ := newTestServer(t, `[{"lat":"not-a-number","lon":"13.4"}]`, http.StatusOK)
		resolver := NewNominatimResolver(WithBaseURL(server.URL), WithRateLimit(rate.Inf))

		_, err := resolver.Resolve(context.Background(), "berlin")
		assert.ErrorIs(t, err, ErrUnresolved)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		server, calls := newTestServer(t, `[]`, http.StatusOK)
		resolver := NewNominatimResolver(WithBaseURL(server.URL), WithRateLimit(rate.Inf))

		_, err := resolver.Resolve(context.Background(), "elsewhere")
		require.ErrorIs(t, err, ErrUnresolved)
		_, err = resolver.Resolve(context.Background(), "elsewhere")
		require.ErrorIs(t, err, ErrUnresolved)
		assert.Equal(t, int64(2), calls.Load())
	})
}

func TestStaticResolver(t *testing.T) {
	resolver := NewStaticResolver(map[string]core.Coordinates{
		"Berlin": {Longitude: 13.405, Latitude: 52.52},
	})

	t.Run("known place", func(t *testing.T) {
		result, err := resolver.Resolve(context.Background(), "berlin")
		require.NoError(t, err)
		assert.Equal(t, 52.52, result.Coordinates.Latitude)
	})

	t.Run("unknown place", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "atlantis")
		assert.ErrorIs(t, err, ErrUnresolved)
	})

	t.Run("empty place", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyPlace)
	})
}

func TestNormalizePlace(t *testing.T) {
	assert.Equal(t, "berlin, germany", normalizePlace("  Berlin,   Germany "))
	assert.Equal(t, "", normalizePlace("   "))
}
