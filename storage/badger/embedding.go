package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
// It enforces a fixed vector dimension across all records.
type EmbeddingRepository struct {
	backend   *Backend
	dimension int
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository enforcing the
// given vector dimension on every upsert.
func NewEmbeddingRepository(backend *Backend, dimension int) (*EmbeddingRepository, error) {
	if dimension <= 0 {
		return nil, core.ErrDimensionMismatch
	}
	return &EmbeddingRepository{
		backend:   backend,
		dimension: dimension,
	}, nil
}

// Dimension returns the fixed vector dimension.
func (r *EmbeddingRepository) Dimension() int {
	return r.dimension
}

// Close releases repository resources.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Upsert replaces any prior embedding for emb.UserID.
// CreatedAt is preserved across replacements; UpdatedAt is always refreshed.
func (r *EmbeddingRepository) Upsert(ctx context.Context, emb *core.UserEmbedding) (*core.UserEmbedding, error) {
	if err := core.ValidateUserEmbedding(emb, r.dimension); err != nil {
		return nil, err
	}

	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		key := makeEmbeddingKey(emb.UserID)

		old, err := r.readEmbedding(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old != nil {
			emb.CreatedAt = old.CreatedAt
		} else {
			emb.CreatedAt = now
		}
		emb.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalUserEmbedding(emb)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return emb, err
}

// Get retrieves an embedding by user ID.
func (r *EmbeddingRepository) Get(ctx context.Context, userID string) (*core.UserEmbedding, error) {
	var result *core.UserEmbedding
	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = r.readEmbedding(tx, makeEmbeddingKey(userID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMany retrieves embeddings for a candidate batch.
// Absent users are simply omitted.
func (r *EmbeddingRepository) GetMany(ctx context.Context, userIDs []string) (map[string]*core.UserEmbedding, error) {
	result := make(map[string]*core.UserEmbedding, len(userIDs))
	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		for _, id := range userIDs {
			emb, err := r.readEmbedding(tx, makeEmbeddingKey(id))
			if err != nil {
				return err
			}
			if emb != nil {
				result[id] = emb
			}
		}
		return nil
	}, false)
	return result, err
}

// Delete removes an embedding.
func (r *EmbeddingRepository) Delete(ctx context.Context, userID string) error {
	return r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		key := makeEmbeddingKey(userID)
		emb, err := r.readEmbedding(tx, key)
		if err != nil {
			return err
		}
		if emb == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// List returns every stored embedding.
func (r *EmbeddingRepository) List(ctx context.Context) ([]*core.UserEmbedding, error) {
	var results []*core.UserEmbedding
	err := r.backend.WithTxContext(ctx, func(tx *badger.Txn) error {
		prefix := []byte(embeddingPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var emb *core.UserEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				emb, err = storage.UnmarshalUserEmbedding(val)
				return err
			})
			if err != nil {
				return err
			}
			if emb != nil {
				results = append(results, emb)
			}
		}
		return nil
	}, false)
	return results, err
}

// readEmbedding reads an embedding record from the transaction.
// Returns nil without error when the key is absent.
func (r *EmbeddingRepository) readEmbedding(tx *badger.Txn, key []byte) (*core.UserEmbedding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var emb *core.UserEmbedding
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		emb, unmarshalErr = storage.UnmarshalUserEmbedding(val)
		return unmarshalErr
	})
	return emb, err
}
