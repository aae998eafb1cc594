package cartstore

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const writeTimeout = 10 * time.Second

// persister writes cart snapshots in the background. Only the newest
// snapshot waiting to be written is kept, so the last submitted snapshot is
// always the last one stored.
type persister struct {
	blobs  BlobStore
	key    string
	log    logrus.FieldLogger
	tracer trace.Tracer

	mu      sync.Mutex
	cond    *sync.Cond
	pending []byte
	queued  bool
	writing bool
	closed  bool
	done    chan struct{}
}

func newPersister(blobs BlobStore, key string, log logrus.FieldLogger, tracer trace.Tracer) *persister {
	p := &persister{
		blobs:  blobs,
		key:    key,
		log:    log,
		tracer: tracer,
		done:   make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// submit hands blob to the writer without waiting for it to land.
func (p *persister) submit(blob []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.log.WithField("key", p.key).Warn("snapshot dropped, store is closed")
		return
	}
	p.pending = blob
	p.queued = true
	p.cond.Broadcast()
}

func (p *persister) run() {
	defer close(p.done)

	p.mu.Lock()
	for {
		for !p.queued && !p.closed {
			p.cond.Wait()
		}
		if !p.queued {
			p.mu.Unlock()
			return
		}
		blob := p.pending
		p.pending, p.queued, p.writing = nil, false, true
		p.mu.Unlock()

		p.write(blob)

		p.mu.Lock()
		p.writing = false
		p.cond.Broadcast()
	}
}

// write stores blob. Failures are logged and dropped: the in-memory cart
// stays authoritative for the session.
func (p *persister) write(blob []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "PersistCart")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.storage_key", p.key),
		attribute.Int("app.snapshot_bytes", len(blob)),
	)

	if err := p.blobs.Set(ctx, p.key, blob); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		p.log.WithError(err).WithField("key", p.key).Error("failed to persist cart snapshot")
	}
}

// flush blocks until nothing is pending or being written.
func (p *persister) flush(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		p.mu.Lock()
		for p.queued || p.writing {
			p.cond.Wait()
		}
		p.mu.Unlock()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close flushes outstanding work and stops the writer goroutine.
func (p *persister) close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
