package cartstore

import (
	"context"
	"errors"
)

// DefaultStorageKey is the key the cart snapshot is stored under.
const DefaultStorageKey = "@GoMarketplace:products"

// ErrBlobNotFound is returned by BlobStore.Get when nothing is stored under the key.
var ErrBlobNotFound = errors.New("cartstore: blob not found")

// BlobStore is an interface for the key/value storage the cart is persisted to.
// Values are opaque and always overwritten whole.
type BlobStore interface {
	Initialize(ctx context.Context) error

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error

	Ping(ctx context.Context) bool
}
