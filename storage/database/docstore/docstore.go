// Package docstore defines the document store the repositories persist to:
// JSON documents grouped in collections, addressed by opaque IDs, with optional unique lookup keys.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document key")
)

type Store interface {
	// Insert stores a new document. It fails with ErrDuplicate if the ID or any of the keys is taken.
	Insert(ctx context.Context, coll, id string, keys []string, body []byte) error
	// Update replaces a document & its keys. It fails with ErrNotFound or ErrDuplicate.
	Update(ctx context.Context, coll, id string, keys []string, body []byte) error
	Get(ctx context.Context, coll, id string) ([]byte, error)
	GetByKey(ctx context.Context, coll, key string) ([]byte, error)
	// List returns every document of the collection, in insertion order.
	List(ctx context.Context, coll string) ([][]byte, error)
	Delete(ctx context.Context, coll string, ids ...string) error
}
