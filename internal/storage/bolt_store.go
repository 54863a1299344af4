package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

const (
	processedBucket     = "processed_ids"
	committedValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Every Add runs in its own
// write transaction, so it is fsynced before returning.
type boltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(processedBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db, now: time.Now}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Load returns every persisted id.
func (b *boltStore) Load() (domain.ProcessedIDSet, error) {
	set := make(domain.ProcessedIDSet)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		if bucket == nil {
			return fmt.Errorf("processed bucket missing")
		}
		return bucket.ForEach(func(k, _ []byte) error {
			set.Insert(string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load processed ids: %w", err)
	}
	return set, nil
}

// Contains reports whether id has been committed.
func (b *boltStore) Contains(id string) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		if bucket == nil {
			return fmt.Errorf("processed bucket missing")
		}
		exists = bucket.Get([]byte(id)) != nil
		return nil
	})
	return exists, err
}

// Add records id along with its commit time.
func (b *boltStore) Add(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		if bucket == nil {
			return fmt.Errorf("processed bucket missing")
		}
		buf := make([]byte, committedValueBytes)
		binary.BigEndian.PutUint64(buf, uint64(b.now().Unix()))
		return bucket.Put([]byte(id), buf)
	})
}

// IsFirstRun reports whether no id has ever been committed.
func (b *boltStore) IsFirstRun() (bool, error) {
	empty := true
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		if bucket == nil {
			return fmt.Errorf("processed bucket missing")
		}
		k, _ := bucket.Cursor().First()
		empty = k == nil
		return nil
	})
	return empty, err
}
