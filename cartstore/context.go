package cartstore

import (
	"context"
	"errors"
)

// ErrNoStore is returned when a CartStore is requested from a context that
// does not carry one. It signals a wiring mistake, not a cart failure.
var ErrNoStore = errors.New("cartstore: no CartStore in context; wrap the caller with WithStore")

type storeKey struct{}

// WithStore returns a copy of ctx carrying s.
func WithStore(ctx context.Context, s *CartStore) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the CartStore carried by ctx.
func FromContext(ctx context.Context) (*CartStore, error) {
	s, ok := ctx.Value(storeKey{}).(*CartStore)
	if !ok || s == nil {
		return nil, ErrNoStore
	}
	return s, nil
}

// MustFromContext is like FromContext but panics when no store is present.
func MustFromContext(ctx context.Context) *CartStore {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
