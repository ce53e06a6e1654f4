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


package geocode

import "errors"

var (
	// ErrUnresolved indicates the place description could not be resolved to
	// coordinates. Recoverable: callers fall back to prior stored coordinates.
	ErrUnresolved = errors.New("place could not be resolved")

	// ErrEmptyPlace indicates an empty place description.
	ErrEmptyPlace = errors.New("place description cannot be empty")
)
