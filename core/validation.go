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

import "fmt"

// ValidateCoordinates validates that a point lies on Earth's surface.
// Written in accepting form so NaN fails every comparison and is rejected
// along with infinities.
func ValidateCoordinates(c Coordinates) error {
	lngOK := c.Longitude >= -180 && c.Longitude <= 180
	latOK := c.Latitude >= -90 && c.Latitude <= 90
	if !lngOK || !latOK {
		return fmt.Errorf("%w: %w: lng=%v lat=%v", ErrValidation, ErrInvalidCoordinates, c.Longitude, c.Latitude)
	}
	return nil
}

// ValidatePrivacyLevel validates that a PrivacyLevel has a known value.
func ValidatePrivacyLevel(p PrivacyLevel) error {
	if p < PrivacyExact || p > PrivacyPrivate {
		return fmt.Errorf("%w: %w: value %d", ErrValidation, ErrInvalidPrivacyLevel, p)
	}
	return nil
}

// ValidateUserLocation validates a UserLocation according to domain rules.
//
// Validation rules:
//   - UserID must not be empty
//   - Privacy must be a known level
//   - Coordinates, if set, must be in range (nil means unresolved and is valid)
func ValidateUserLocation(loc *UserLocation) error {
	if loc == nil {
		return fmt.Errorf("%w: location is nil", ErrValidation)
	}
	if loc.UserID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUserID)
	}
	if err := ValidatePrivacyLevel(loc.Privacy); err != nil {
		return err
	}
	if loc.Coordinates != nil {
		return ValidateCoordinates(*loc.Coordinates)
	}
	return nil
}

// ValidateUserEmbedding validates a UserEmbedding against the deployment's
// fixed vector dimension. A mismatched length is a validation error, never
// a silent truncation.
func ValidateUserEmbedding(emb *UserEmbedding, dimension int) error {
	if emb == nil {
		return fmt.Errorf("%w: embedding is nil", ErrValidation)
	}
	if emb.UserID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUserID)
	}
	if len(emb.Vector) != dimension {
		return fmt.Errorf("%w: %w: got %d, want %d", ErrValidation, ErrDimensionMismatch, len(emb.Vector), dimension)
	}
	return nil
}

// ValidateQueryRequest validates a fully resolved QueryRequest.
// Defaults are expected to have been applied already; the searcher does
// this before calling.
func ValidateQueryRequest(req *QueryRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrValidation)
	}
	if req.RequesterID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUserID)
	}
	if req.Mode < ModeLocationOnly || req.Mode > ModeHybrid {
		return fmt.Errorf("%w: %w: value %d", ErrValidation, ErrInvalidMode, req.Mode)
	}
	if req.Mode != ModeLocationOnly && len(req.QueryVector) == 0 {
		return fmt.Errorf("%w: %w for mode %s", ErrValidation, ErrMissingQueryVector, req.Mode)
	}
	if req.Mode != ModeSemanticOnly {
		if req.QueryLocation == nil {
			return fmt.Errorf("%w: %w for mode %s", ErrValidation, ErrMissingQueryLocation, req.Mode)
		}
		if err := ValidateCoordinates(*req.QueryLocation); err != nil {
			return err
		}
		if req.RadiusKm <= 0 {
			return fmt.Errorf("%w: %w: got %v", ErrValidation, ErrInvalidRadius, req.RadiusKm)
		}
	}
	if req.MinSimilarity < 0 || req.MinSimilarity > 1 {
		return fmt.Errorf("%w: %w: got %v", ErrValidation, ErrInvalidMinSimilarity, req.MinSimilarity)
	}
	if req.LocationWeight != nil && (*req.LocationWeight < 0 || *req.LocationWeight > 1) {
		return fmt.Errorf("%w: %w: got %v", ErrValidation, ErrInvalidWeight, *req.LocationWeight)
	}
	if req.MaxResults <= 0 {
		return fmt.Errorf("%w: %w: got %d", ErrValidation, ErrInvalidMaxResults, req.MaxResults)
	}
	return nil
}
