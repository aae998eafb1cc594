package cartstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

const createBlobsTable = `CREATE TABLE IF NOT EXISTS blobs (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// SQLiteBlobStore keeps blobs in a single table of a local SQLite file.
type SQLiteBlobStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewSQLiteBlobStore opens (creating if needed) the database at path.
func NewSQLiteBlobStore(path string, log logrus.FieldLogger) (*SQLiteBlobStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	return &SQLiteBlobStore{
		db:  db,
		log: log.WithFields(logrus.Fields{"blobstore": "sqlite", "path": path}),
	}, nil
}

// Initialize creates the blobs table.
func (s *SQLiteBlobStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createBlobsTable); err != nil {
		return errors.Wrap(err, "create blobs table")
	}
	s.log.Info("initialized")
	return nil
}

// Get returns the blob stored under key.
func (s *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select blob")
	}
	return blob, nil
}

// Set overwrites the blob stored under key.
func (s *SQLiteBlobStore) Set(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, blob)
	if err != nil {
		return errors.Wrap(err, "upsert blob")
	}
	return nil
}

// Ping checks the database handle is usable.
func (s *SQLiteBlobStore) Ping(ctx context.Context) bool {
	if err := s.db.PingContext(ctx); err != nil {
		s.log.WithError(err).Debug("ping failed")
		return false
	}
	return true
}

// Close closes the database.
func (s *SQLiteBlobStore) Close() error {
	return s.db.Close()
}
