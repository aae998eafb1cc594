package cartstore

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CartStore holds the cart in memory and writes a full snapshot to a
// BlobStore after every change.
//
// Mutations are applied in call order against the latest cart. The write to
// the BlobStore happens in the background; use Flush to wait for it.
type CartStore struct {
	blobs  BlobStore
	key    string
	log    logrus.FieldLogger
	tracer trace.Tracer

	mu       sync.Mutex
	products Cart

	persist *persister
}

// Option configures a CartStore.
type Option func(*CartStore)

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(s *CartStore) { s.key = key }
}

// WithLogger sets the logger. Logging is discarded by default.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *CartStore) { s.log = log }
}

// WithTracer sets the tracer used for store spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *CartStore) { s.tracer = tracer }
}

// New creates a store and rehydrates the cart from blobs. A missing or
// unreadable snapshot leaves the cart empty.
func New(ctx context.Context, blobs BlobStore, opts ...Option) *CartStore {
	discard := logrus.New()
	discard.Out = io.Discard

	s := &CartStore{
		blobs:    blobs,
		key:      DefaultStorageKey,
		log:      discard,
		tracer:   otel.Tracer("cartstore"),
		products: Cart{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "cartstore")

	s.initialize(ctx)
	s.persist = newPersister(blobs, s.key, s.log, s.tracer)
	return s
}

func (s *CartStore) initialize(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "LoadCart")
	defer span.End()
	span.SetAttributes(attribute.String("app.storage_key", s.key))

	log := s.log.WithField("key", s.key)

	blob, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, ErrBlobNotFound) {
		log.Info("no stored cart, starting empty")
		return
	}
	if err != nil {
		span.RecordError(err)
		log.WithError(err).Warn("failed to read stored cart, starting empty")
		return
	}

	cart, err := decodeCart(blob)
	if err != nil {
		span.RecordError(err)
		log.WithError(err).Warn("stored cart is unreadable, starting empty")
		return
	}

	s.mu.Lock()
	s.products = cart
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("app.line_items", len(cart)))
	log.WithField("line_items", len(cart)).Info("cart restored")
}

// Products returns a copy of the current cart.
func (s *CartStore) Products() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products.Clone()
}

// TotalItems returns the sum of all quantities in the cart.
func (s *CartStore) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products.TotalItems()
}

// AddToCart puts one more of p in the cart.
func (s *CartStore) AddToCart(ctx context.Context, p Product) {
	_, span := s.tracer.Start(ctx, "AddToCart")
	defer span.End()
	span.SetAttributes(attribute.String("app.product_id", p.ID))

	s.apply(span, func(c Cart) (Cart, bool) {
		return AddProduct(c, p), true
	})
}

// Increment adds one to the quantity of id. Unknown ids are ignored.
func (s *CartStore) Increment(ctx context.Context, id string) {
	_, span := s.tracer.Start(ctx, "Increment")
	defer span.End()
	span.SetAttributes(attribute.String("app.product_id", id))

	s.apply(span, func(c Cart) (Cart, bool) {
		return IncrementItem(c, id)
	})
}

// Decrement removes one from the quantity of id, removing the line item at
// zero. Unknown ids are ignored.
func (s *CartStore) Decrement(ctx context.Context, id string) {
	_, span := s.tracer.Start(ctx, "Decrement")
	defer span.End()
	span.SetAttributes(attribute.String("app.product_id", id))

	s.apply(span, func(c Cart) (Cart, bool) {
		return DecrementItem(c, id)
	})
}

// apply commits the result of fn and queues the snapshot for writing. The
// lock is held across both so snapshots are queued in commit order.
func (s *CartStore) apply(span trace.Span, fn func(Cart) (Cart, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.products)
	span.SetAttributes(attribute.Bool("app.changed", changed))
	if !changed {
		return
	}
	s.products = next
	span.SetAttributes(attribute.Int("app.line_items", len(next)))

	blob, err := encodeCart(next)
	if err != nil {
		span.RecordError(err)
		s.log.WithError(err).Error("failed to encode cart snapshot")
		return
	}
	s.persist.submit(blob)
}

// Flush waits until every queued snapshot has been written.
func (s *CartStore) Flush(ctx context.Context) error {
	return s.persist.flush(ctx)
}

// Close writes any queued snapshot and stops the background writer. Later
// mutations still change the in-memory cart but are not persisted.
func (s *CartStore) Close(ctx context.Context) error {
	return s.persist.close(ctx)
}

// Ping reports whether the underlying BlobStore is reachable.
func (s *CartStore) Ping(ctx context.Context) bool {
	return s.blobs.Ping(ctx)
}
