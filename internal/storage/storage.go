// Package storage persists an audit log of served predictions using BoltDB.
// Each served prediction is appended with a time-ordered key, giving the
// operator a queryable trail of what the model said and when, independent
// of scrape-based metrics.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions"

// Record is one served prediction as written to the audit log.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Prediction  string    `json:"prediction"`
	Probability float64   `json:"probability"`
	Source      string    `json:"source"` // http, batch, or stream
}

// Store provides persistent storage for prediction records.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the audit database under dataPath and ensures the
// predictions bucket exists.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "mycoscan-audit.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket))
		if err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Call when the store is no longer needed.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StorePrediction appends a record keyed by its timestamp, so cursor scans
// return records in time order.
func (s *Store) StorePrediction(rec Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%020d", rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetRange retrieves records within a time range, inclusive on both ends,
// oldest first. Malformed records are skipped.
func (s *Store) GetRange(start, end time.Time) ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%020d", end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && string(k) <= string(endKey); k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// Recent returns up to n of the most recent records, newest first.
func (s *Store) Recent(n int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}
