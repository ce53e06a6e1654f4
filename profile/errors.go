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

package profile

import "errors"

var (
	// ErrLocationRepositoryRequired is returned when a nil location repository is provided.
	ErrLocationRepositoryRequired = errors.New("location repository is required")

	// ErrEmbeddingRepositoryRequired is returned when a nil embedding repository is provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository is required")

	// ErrEmbedderRequired is returned when a nil embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmptyProfileText is returned when a profile update carries no text.
	ErrEmptyProfileText = errors.New("profile text must not be empty")

	// ErrNoPosition is returned when a location update carries neither
	// coordinates nor a place name.
	ErrNoPosition = errors.New("location update requires coordinates or a place name")
)
