package cartstore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxPingAttempts = 30

// RedisBlobStore is a blob store backed by Redis.
type RedisBlobStore struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// NewRedisBlobStore accepts a Redis connection string ("redis://..." or
// "hostname:port") and returns a store instance.
func NewRedisBlobStore(redisAddr string, log logrus.FieldLogger) *RedisBlobStore {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		// Not in "redis://..." format, use it as a plain Addr.
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  30 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	return &RedisBlobStore{
		client: client,
		log:    log.WithField("blobstore", "redis"),
	}
}

// Initialize waits for Redis to answer a ping, backing off exponentially
// between attempts.
func (r *RedisBlobStore) Initialize(ctx context.Context) error {
	r.log.Info("initializing connection")

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	attempt := 0
	ping := func() error {
		attempt++
		if r.Ping(ctx) {
			return nil
		}
		return errors.Errorf("ping attempt %d/%d failed", attempt, maxPingAttempts)
	}
	notify := func(err error, wait time.Duration) {
		r.log.WithError(err).Warnf("waiting %v before next attempt", wait)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxPingAttempts-1), ctx)
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrapf(err, "failed to connect to Redis after %d attempts", attempt)
	}

	r.log.Infof("ping successful on attempt %d", attempt)
	return nil
}

// Get returns the blob stored under key.
func (r *RedisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis GET")
	}
	return val, nil
}

// Set overwrites the blob stored under key. Keys never expire.
func (r *RedisBlobStore) Set(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, key, blob, 0).Err(); err != nil {
		return errors.Wrap(err, "redis SET")
	}
	return nil
}

// Ping checks if Redis is alive.
func (r *RedisBlobStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.WithError(err).Debug("ping failed")
		return false
	}
	return true
}

// Close releases the connection pool.
func (r *RedisBlobStore) Close() error {
	return r.client.Close()
}
