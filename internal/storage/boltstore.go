package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/nvasquez/atmcore/internal/domain"
)

var accountsBucket = []byte("accounts")

// BoltStore keeps the snapshot in an embedded bbolt database, one key per
// account. It preserves the whole-snapshot save semantics of the file
// store: every save rewrites the accounts bucket in a single transaction.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create accounts bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Load reads every account from the accounts bucket.
func (s *BoltStore) Load(_ context.Context) (Snapshot, error) {
	snap := Snapshot{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(accountsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var acct domain.Account
			if err := json.Unmarshal(v, &acct); err != nil {
				return fmt.Errorf("decode account %s: %w", k, err)
			}
			snap[string(k)] = &acct
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save replaces the accounts bucket with the given snapshot atomically.
func (s *BoltStore) Save(_ context.Context, snap Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(accountsBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(accountsBucket)
		if err != nil {
			return err
		}
		for number, acct := range snap {
			data, err := json.Marshal(acct)
			if err != nil {
				return fmt.Errorf("encode account %s: %w", number, err)
			}
			if err := bucket.Put([]byte(number), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ping runs an empty read transaction to verify the database is usable.
func (s *BoltStore) Ping(_ context.Context) error {
	return s.db.View(func(*bolt.Tx) error { return nil })
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
