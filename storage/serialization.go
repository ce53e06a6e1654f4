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


package storage

import (
	"fmt"

	"github.com/poiesic/vicinity/core"
)

// MarshalUserLocation serializes a UserLocation to bytes.
func MarshalUserLocation(loc *core.UserLocation) []byte {
	buf := make([]byte, core.UserLocationMUS.Size(*loc))
	core.UserLocationMUS.Marshal(*loc, buf)
	return buf
}

// UnmarshalUserLocation deserializes a UserLocation from bytes.
func UnmarshalUserLocation(data []byte) (*core.UserLocation, error) {
	loc, _, err := core.UserLocationMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: user location: %w", ErrSerializationFailed, err)
	}
	return &loc, nil
}

// MarshalUserEmbedding serializes a UserEmbedding to bytes.
func MarshalUserEmbedding(emb *core.UserEmbedding) []byte {
	buf := make([]byte, core.UserEmbeddingMUS.Size(*emb))
	core.UserEmbeddingMUS.Marshal(*emb, buf)
	return buf
}

// UnmarshalUserEmbedding deserializes a UserEmbedding from bytes.
func UnmarshalUserEmbedding(data []byte) (*core.UserEmbedding, error) {
	emb, _, err := core.UserEmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: user embedding: %w", ErrSerializationFailed, err)
	}
	return &emb, nil
}
