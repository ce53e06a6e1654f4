// Package ai defines the embedding producer contract consumed by the profile
// write path. The openai subpackage talks to OpenAI-compatible APIs; the mock
// subpackage provides deterministic embeddings for tests and seeding.
package ai
