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


package search

import "errors"

// Config holds the injected defaults for the query engine. It is passed in
// at construction rather than read from process-wide state so tests can pin
// deterministic values.
type Config struct {
	// DefaultRadiusKm is used when a location or hybrid request leaves
	// RadiusKm at zero. Default: 50.
	DefaultRadiusKm float64

	// DefaultLocationWeight is the hybrid-mode location weight used when a
	// request does not set one. Default: 0.3.
	DefaultLocationWeight float64

	// DefaultMaxResults bounds result lists when a request leaves MaxResults
	// at zero. Default: 20.
	DefaultMaxResults int

	// PrivateVisibleToSemantic controls whether users with a private privacy
	// level are eligible for semantic-only matching. Location-based matching
	// always excludes them. Default: false (private users are fully excluded
	// from all search modes).
	PrivateVisibleToSemantic bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDefaultRadiusKm sets the default search radius.
func WithDefaultRadiusKm(radiusKm float64) ConfigOption {
	return func(c *Config) {
		c.DefaultRadiusKm = radiusKm
	}
}

// WithDefaultLocationWeight sets the default hybrid location weight.
func WithDefaultLocationWeight(weight float64) ConfigOption {
	return func(c *Config) {
		c.DefaultLocationWeight = weight
	}
}

// WithDefaultMaxResults sets the default result limit.
func WithDefaultMaxResults(maxResults int) ConfigOption {
	return func(c *Config) {
		c.DefaultMaxResults = maxResults
	}
}

// WithPrivateVisibleToSemantic makes private users eligible for
// semantic-only matching.
func WithPrivateVisibleToSemantic(visible bool) ConfigOption {
	return func(c *Config) {
		c.PrivateVisibleToSemantic = visible
	}
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultRadiusKm:       50,
		DefaultLocationWeight: 0.3,
		DefaultMaxResults:     20,
	}
}

// NewConfig creates a Config with default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.DefaultRadiusKm <= 0 {
		return errors.New("search config: DefaultRadiusKm must be positive")
	}
	if c.DefaultLocationWeight < 0 || c.DefaultLocationWeight > 1 {
		return errors.New("search config: DefaultLocationWeight must be in [0, 1]")
	}
	if c.DefaultMaxResults <= 0 {
		return errors.New("search config: DefaultMaxResults must be positive")
	}
	return nil
}
