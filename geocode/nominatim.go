package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/vicinity/core"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	defaultTimeout = 5 * time.Second
	userAgent      = "vicinity/1.0"
)

// NominatimResolver resolves places against a Nominatim-compatible HTTP API.
//
// Successful resolutions are cached permanently by normalized input string;
// geographic facts are stable, so the cache has no expiry. Concurrent misses
// for the same place are collapsed into a single upstream request, and all
// upstream requests pass through a courtesy rate limiter (the public
// Nominatim instance requires at most one request per second).
//
// The resolver holds no lock shared with query execution: a slow upstream
// degrades only the write path for the user being geocoded.
type NominatimResolver struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[core.CacheKey]*Result
}

var _ Resolver = (*NominatimResolver)(nil)

// NominatimOption configures a NominatimResolver.
type NominatimOption func(*NominatimResolver)

// WithBaseURL sets the Nominatim endpoint.
// Default is the public OpenStreetMap instance.
func WithBaseURL(baseURL string) NominatimOption {
	return func(r *NominatimResolver) {
		r.baseURL = baseURL
	}
}

// WithTimeout bounds each upstream HTTP call.
// Default is 5 seconds.
func WithTimeout(timeout time.Duration) NominatimOption {
	return func(r *NominatimResolver) {
		r.client.Timeout = timeout
	}
}

// WithRateLimit sets the upstream request rate.
// Default is 1 request per second per the public Nominatim usage policy.
func WithRateLimit(limit rate.Limit) NominatimOption {
	return func(r *NominatimResolver) {
		r.limiter = rate.NewLimiter(limit, 1)
	}
}

// WithResolverLogger sets a custom logger.
// Default is slog.Default().
func WithResolverLogger(logger *slog.Logger) NominatimOption {
	return func(r *NominatimResolver) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewNominatimResolver creates a resolver against a Nominatim-compatible API.
func NewNominatimResolver(opts ...NominatimOption) *NominatimResolver {
	r := &NominatimResolver{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  slog.Default(),
		cache:   make(map[core.CacheKey]*Result),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// nominatimPlace is one entry of a Nominatim search response.
// Coordinates come back as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve resolves a place description to coordinates.
// Repeated identical requests are served from cache without a network call.
func (r *NominatimResolver) Resolve(ctx context.Context, place string) (*Result, error) {
	normalized := normalizePlace(place)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnresolved, ErrEmptyPlace)
	}
	key := core.CacheKeyFromContent(normalized)

	r.mu.RLock()
	cached := r.cache[key]
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	// Collapse concurrent misses for the same normalized place.
	v, err, _ := r.group.Do(normalized, func() (any, error) {
		result, err := r.fetch(ctx, normalized)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[key] = result
		r.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// fetch performs one upstream search request.
func (r *NominatimResolver) fetch(ctx context.Context, place string) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, r.unresolved(place, err)
	}

	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, r.unresolved(place, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.unresolved(place, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, r.unresolved(place, fmt.Errorf("status %d", resp.StatusCode))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, r.unresolved(place, err)
	}
	if len(places) == 0 {
		return nil, r.unresolved(place, errors.New("no results"))
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, r.unresolved(place, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, r.unresolved(place, err)
	}

	coords := core.Coordinates{Longitude: lng, Latitude: lat}
	if err := core.ValidateCoordinates(coords); err != nil {
		return nil, r.unresolved(place, err)
	}

	return &Result{
		Coordinates: coords,
		DisplayName: places[0].DisplayName,
	}, nil
}

// unresolved wraps any failure in ErrUnresolved, tagging timeouts so callers
// can distinguish them.
func (r *NominatimResolver) unresolved(place string, cause error) error {
	r.logger.Warn("geocode failed", "place", place, "err", cause)
	if errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", ErrUnresolved, core.ErrTimeout, cause)
	}
	return fmt.Errorf("%w: %v", ErrUnresolved, cause)
}
