package profile

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vicinity/ai"
	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/geocode"
	"github.com/poiesic/vicinity/storage"
)

// Pipeline orchestrates profile writes. Profile text is embedded and stored
// asynchronously on a worker pool; location updates are resolved and stored
// synchronously.
type Pipeline struct {
	locationRepo  storage.LocationRepository
	embeddingRepo storage.EmbeddingRepository
	embedder      ai.Embedder
	resolver      geocode.Resolver
	embeddingPool *ants.Pool
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithResolver sets the geocoding resolver used for place-name location
// updates. Without one, place-name updates fail with ErrNoPosition unless
// coordinates are also given.
func WithResolver(resolver geocode.Resolver) Option {
	return func(p *Pipeline) error {
		p.resolver = resolver
		return nil
	}
}

// NewPipeline creates a new profile pipeline.
func NewPipeline(
	locationRepo storage.LocationRepository,
	embeddingRepo storage.EmbeddingRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if locationRepo == nil {
		return nil, ErrLocationRepositoryRequired
	}
	if embeddingRepo == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		locationRepo:  locationRepo,
		embeddingRepo: embeddingRepo,
		embedder:      embedder,
		embeddingPool: pool,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// ProfileOptions holds optional parameters for profile updates.
type ProfileOptions struct {
	Metadata map[string]string // Optional metadata stored alongside the embedding
}

// SetProfile embeds the given profile text and stores the result
// asynchronously. Validation happens up front; embedding and storage errors
// during async processing are logged but do not fail the call. A pool that
// cannot accept the job, because it is released or saturated, does fail the
// call so the update is never silently dropped.
func (p *Pipeline) SetProfile(ctx context.Context, userID string, profileText string, opts *ProfileOptions) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}
	if profileText == "" {
		return ErrEmptyProfileText
	}
	if opts == nil {
		opts = &ProfileOptions{}
	}

	err := p.embeddingPool.Submit(func() {
		if err := p.embedAndStore(context.Background(), userID, profileText, opts.Metadata); err != nil {
			p.logger.Error("error processing profile", "user_id", userID, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("submitting profile job: %w", err)
	}

	return nil
}

// SetProfileSync embeds and stores the profile text before returning. Used by
// callers that need the embedding visible to queries immediately, such as the
// CLI and the seeder.
func (p *Pipeline) SetProfileSync(ctx context.Context, userID string, profileText string, opts *ProfileOptions) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}
	if profileText == "" {
		return ErrEmptyProfileText
	}
	if opts == nil {
		opts = &ProfileOptions{}
	}

	return p.embedAndStore(ctx, userID, profileText, opts.Metadata)
}

func (p *Pipeline) embedAndStore(ctx context.Context, userID, profileText string, metadata map[string]string) error {
	started := time.Now()

	vector, err := p.embedder.EmbedText(ctx, profileText)
	if err != nil {
		return fmt.Errorf("embedding profile text: %w", err)
	}

	emb := &core.UserEmbedding{
		UserID:      userID,
		Vector:      vector,
		ProfileText: profileText,
		Metadata:    metadata,
	}

	if _, err := p.embeddingRepo.Upsert(ctx, emb); err != nil {
		return fmt.Errorf("storing profile embedding: %w", err)
	}

	p.logger.Debug("profile embedded and stored",
		"user_id", userID,
		"dimension", len(vector),
		"elapsed", time.Since(started))
	return nil
}

// Release releases the worker pool. Queued profile jobs may be dropped.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
