package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/storage"
)

// Searcher is the hybrid query engine: the sole public entry point for
// matching queries. It orchestrates the location and embedding repositories
// into one of three modes (location-only, semantic-only, hybrid) and returns
// a ranked, bounded result list.
//
// The searcher holds no mutable state between calls; every Query is an
// independent, read-only operation, so any number may run concurrently
// against the same stores without coordination.
type Searcher struct {
	locationRepo  storage.LocationRepository
	embeddingRepo storage.EmbeddingRepository
	config        *Config
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithConfig sets the engine configuration.
// Default is DefaultConfig().
func WithConfig(config *Config) Option {
	return func(s *Searcher) error {
		if config == nil {
			config = DefaultConfig()
		}
		if err := config.Validate(); err != nil {
			return err
		}
		s.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher over the given repositories.
func NewSearcher(
	locationRepo storage.LocationRepository,
	embeddingRepo storage.EmbeddingRepository,
	opts ...Option,
) (*Searcher, error) {
	if locationRepo == nil {
		return nil, ErrLocationRepositoryRequired
	}
	if embeddingRepo == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}

	s := &Searcher{
		locationRepo:  locationRepo,
		embeddingRepo: embeddingRepo,
		config:        DefaultConfig(),
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Query validates the request, narrows the candidate population, scores it
// and returns the ranked results.
func (s *Searcher) Query(ctx context.Context, req *core.QueryRequest) ([]core.ScoredResult, error) {
	return s.QueryWithMonitor(ctx, req, nil)
}

// QueryWithMonitor runs Query with monitoring callbacks at each stage.
func (s *Searcher) QueryWithMonitor(ctx context.Context, req *core.QueryRequest, monitor QueryMonitor) ([]core.ScoredResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	resolved, err := s.resolveRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateQueryRequest(resolved); err != nil {
		return nil, err
	}
	monitor.Start(resolved)

	var candidates []core.Candidate
	switch resolved.Mode {
	case core.ModeLocationOnly:
		candidates, err = s.locationCandidates(ctx, resolved, monitor)
	case core.ModeSemanticOnly:
		candidates, err = s.semanticCandidates(ctx, resolved, monitor)
	case core.ModeHybrid:
		candidates, err = s.hybridCandidates(ctx, resolved, monitor)
	}
	if err != nil {
		s.logger.Error("error building candidate set", "mode", resolved.Mode.String(), "err", err)
		return nil, err
	}

	results := Fuse(resolved, candidates)
	monitor.Finish(results)
	return results, nil
}

// resolveRequest applies configured defaults to a copy of the request.
// The caller's request is never mutated.
func (s *Searcher) resolveRequest(ctx context.Context, req *core.QueryRequest) (*core.QueryRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", core.ErrValidation)
	}
	resolved := *req

	if resolved.MaxResults == 0 {
		resolved.MaxResults = s.config.DefaultMaxResults
	}
	if resolved.Mode != core.ModeSemanticOnly {
		if resolved.RadiusKm == 0 {
			resolved.RadiusKm = s.config.DefaultRadiusKm
		}
		if resolved.QueryLocation == nil && resolved.RequesterID != "" {
			loc, err := s.locationRepo.Get(ctx, resolved.RequesterID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, s.storeError(err)
			}
			if loc.Resolved() {
				resolved.QueryLocation = loc.Coordinates
			}
			// Still nil when unresolved; validation rejects the request.
		}
	}
	if resolved.Mode == core.ModeHybrid && resolved.LocationWeight == nil {
		w := s.config.DefaultLocationWeight
		resolved.LocationWeight = &w
	}
	return &resolved, nil
}

// locationCandidates builds the candidate set for location-only mode.
// No embeddings are fetched.
func (s *Searcher) locationCandidates(ctx context.Context, req *core.QueryRequest, monitor QueryMonitor) ([]core.Candidate, error) {
	matches, err := s.locationRepo.FindWithinRadius(ctx, *req.QueryLocation, req.RadiusKm, req.RequesterID)
	if err != nil {
		return nil, s.storeError(err)
	}
	monitor.AfterRadiusSearch(matches)

	candidates := make([]core.Candidate, 0, len(matches))
	for _, m := range matches {
		d := m.DistanceKm
		candidates = append(candidates, core.Candidate{
			UserID:     m.UserID,
			DistanceKm: &d,
			Metadata:   locationMetadata(m.Location),
		})
	}
	return candidates, nil
}

// hybridCandidates narrows by geography first, then fetches embeddings for
// the surviving candidates only. Radius hits without an embedding are
// excluded rather than given a default score.
func (s *Searcher) hybridCandidates(ctx context.Context, req *core.QueryRequest, monitor QueryMonitor) ([]core.Candidate, error) {
	matches, err := s.locationRepo.FindWithinRadius(ctx, *req.QueryLocation, req.RadiusKm, req.RequesterID)
	if err != nil {
		return nil, s.storeError(err)
	}
	monitor.AfterRadiusSearch(matches)
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.UserID
	}
	embs, err := s.embeddingRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, s.storeError(err)
	}
	monitor.AfterEmbeddingFetch(len(embs))

	candidates := make([]core.Candidate, 0, len(embs))
	for _, m := range matches {
		emb, ok := embs[m.UserID]
		if !ok {
			continue
		}
		d := m.DistanceKm
		sim := core.CosineSimilarity(req.QueryVector, emb.Vector)
		candidates = append(candidates, core.Candidate{
			UserID:     m.UserID,
			DistanceKm: &d,
			Similarity: &sim,
			Metadata:   emb.Metadata,
		})
	}
	return candidates, nil
}

// semanticCandidates scores the full eligible embedding population.
// Whether privacy-flagged users are eligible is a configuration choice.
func (s *Searcher) semanticCandidates(ctx context.Context, req *core.QueryRequest, monitor QueryMonitor) ([]core.Candidate, error) {
	embs, err := s.embeddingRepo.List(ctx)
	if err != nil {
		return nil, s.storeError(err)
	}
	monitor.AfterEmbeddingFetch(len(embs))

	hidden := make(map[string]bool)
	if !s.config.PrivateVisibleToSemantic {
		ids := make([]string, 0, len(embs))
		for _, emb := range embs {
			if emb.UserID != req.RequesterID {
				ids = append(ids, emb.UserID)
			}
		}
		locs, err := s.locationRepo.GetMany(ctx, ids)
		if err != nil {
			return nil, s.storeError(err)
		}
		for id, loc := range locs {
			if loc.Privacy == core.PrivacyPrivate {
				hidden[id] = true
			}
		}
	}

	candidates := make([]core.Candidate, 0, len(embs))
	for _, emb := range embs {
		if emb.UserID == req.RequesterID || hidden[emb.UserID] {
			continue
		}
		sim := core.CosineSimilarity(req.QueryVector, emb.Vector)
		candidates = append(candidates, core.Candidate{
			UserID:     emb.UserID,
			Similarity: &sim,
			Metadata:   emb.Metadata,
		})
	}
	return candidates, nil
}

// storeError classifies repository failures: cancellation surfaces as a
// distinct timeout outcome, everything else as store unavailability. An empty
// result must only ever mean "no matches", never "the store was down".
func (s *Searcher) storeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", core.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
}

// locationMetadata surfaces display attributes from a location record for
// modes that never touch the embedding store.
func locationMetadata(loc *core.UserLocation) map[string]string {
	if loc == nil || loc.Timezone == "" {
		return nil
	}
	return map[string]string{"timezone": loc.Timezone}
}
