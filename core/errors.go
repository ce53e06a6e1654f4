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


package core

import "errors"

// Validation errors. All wrap ErrValidation so callers can classify them
// with a single errors.Is check. Validation failures are never retryable.
var (
	// ErrValidation is the base class for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyUserID indicates a missing user identifier.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrInvalidCoordinates indicates longitude or latitude out of range.
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrInvalidPrivacyLevel indicates an unknown privacy level value.
	ErrInvalidPrivacyLevel = errors.New("invalid privacy level")

	// ErrInvalidMode indicates an unknown query mode value.
	ErrInvalidMode = errors.New("invalid query mode")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// deployment's fixed embedding dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrMissingQueryVector indicates a semantic or hybrid query without a vector.
	ErrMissingQueryVector = errors.New("query vector required")

	// ErrMissingQueryLocation indicates a location or hybrid query with no
	// query location and no stored requester location to fall back on.
	ErrMissingQueryLocation = errors.New("query location required")

	// ErrInvalidRadius indicates a non-positive search radius.
	ErrInvalidRadius = errors.New("radius must be positive")

	// ErrInvalidWeight indicates a location weight outside [0, 1].
	ErrInvalidWeight = errors.New("location weight must be in [0, 1]")

	// ErrInvalidMinSimilarity indicates a minimum similarity outside [0, 1].
	ErrInvalidMinSimilarity = errors.New("min similarity must be in [0, 1]")

	// ErrInvalidMaxResults indicates a non-positive result limit.
	ErrInvalidMaxResults = errors.New("max results must be positive")
)

// Infrastructure errors. Both are caller-facing and safe to retry, unlike
// validation errors.
var (
	// ErrStoreUnavailable indicates the underlying store could not be reached.
	// It is never degraded to an empty result set.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTimeout indicates an external call or the overall query exceeded its
	// bound. Distinct from ErrStoreUnavailable so callers can decide whether
	// to retry.
	ErrTimeout = errors.New("operation timed out")
)
