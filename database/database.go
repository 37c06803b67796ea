package database

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var anchorsBucket = []byte("anchors")

// BoltLog - Anchor log stored as keys of a bolt bucket
type BoltLog struct {
	db *bolt.DB
}

// OpenBoltLog - Open (or create) the bolt file at path
func OpenBoltLog(path string) (*BoltLog, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt registry: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(anchorsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create anchors bucket: %w", err)
	}
	return &BoltLog{db: db}, nil
}

// Append - Put the id with its registration time, existing keys are left untouched
func (l *BoltLog) Append(id string) error {
	if !validID(id) {
		return fmt.Errorf("invalid anchor id %q", id)
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(anchorsBucket)
		if err != nil {
			return err
		}
		if b.Get([]byte(id)) != nil {
			return nil
		}
		return b.Put([]byte(id), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Load - All registered ids, in key order
func (l *BoltLog) Load() (ids []string, err error) {
	err = l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(anchorsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// Close - Close DB connection
func (l *BoltLog) Close() error {
	return l.db.Close()
}
