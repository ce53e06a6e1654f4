// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vicinity

import (
	"log/slog"

	"github.com/poiesic/vicinity/ai"
	"github.com/poiesic/vicinity/ai/openai"
	"github.com/poiesic/vicinity/geocode"
	"github.com/poiesic/vicinity/profile"
	"github.com/poiesic/vicinity/search"
	"github.com/poiesic/vicinity/storage"
	"github.com/poiesic/vicinity/storage/badger"
)

// Engine bundles the stores, the embedder and the geocoder behind one handle.
type Engine struct {
	backend       *badger.Backend
	locationRepo  storage.LocationRepository
	embeddingRepo storage.EmbeddingRepository
	embedder      ai.Embedder
	resolver      geocode.Resolver
	logger        *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
	resolver geocode.Resolver
	inMemory bool
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects a pre-built embedder, bypassing the OpenAI-compatible
// client. Used by tests and the seeder.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithGeocoder injects a geocoding resolver. Default is a Nominatim resolver
// against the public OpenStreetMap instance.
func WithGeocoder(resolver geocode.Resolver) EngineOption {
	return func(o *engineOptions) {
		o.resolver = resolver
	}
}

// WithInMemoryStore opens the store in memory instead of on disk.
func WithInMemoryStore() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the store at filePath and wires up the repositories,
// embedder and geocoder.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	locationRepo := badger.NewLocationRepository(backend)

	embeddingRepo, err := badger.NewEmbeddingRepository(backend, options.aiConfig.Dimension)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	resolver := options.resolver
	if resolver == nil {
		resolver = geocode.NewNominatimResolver()
	}

	return &Engine{
		backend:       backend,
		locationRepo:  locationRepo,
		embeddingRepo: embeddingRepo,
		embedder:      embedder,
		resolver:      resolver,
		logger:        slog.Default(),
	}, nil
}

// Close releases the repositories and the underlying store.
func (e *Engine) Close() error {
	if err := e.embeddingRepo.Close(); err != nil {
		e.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := e.locationRepo.Close(); err != nil {
		e.logger.Error("error closing location repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) LocationRepository() storage.LocationRepository {
	return e.locationRepo
}

func (e *Engine) EmbeddingRepository() storage.EmbeddingRepository {
	return e.embeddingRepo
}

func (e *Engine) Embedder() ai.Embedder {
	return e.embedder
}

func (e *Engine) Geocoder() geocode.Resolver {
	return e.resolver
}

func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(e.locationRepo, e.embeddingRepo, opts...)
}

func (e *Engine) NewProfilePipeline(opts ...profile.Option) (*profile.Pipeline, error) {
	opts = append([]profile.Option{profile.WithResolver(e.resolver)}, opts...)
	return profile.NewPipeline(e.locationRepo, e.embeddingRepo, e.embedder, opts...)
}
