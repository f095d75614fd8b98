// Package outbox persists pending notification emails in BoltDB so a
// crashed or restarted process never loses queued notifications, and SMTP
// outages only delay delivery instead of dropping it.
package outbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Message is one email waiting for delivery.
type Message struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (m *Message) normalize() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
}

// Store wraps BoltDB. Keys are timestamp-ordered so GetBatch drains oldest
// first.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "outbox"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue stores a message under a timestamp-ordered key.
func (s *Store) Enqueue(msg Message) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	msg.normalize()
	msg.bucketKey = []byte(fmt.Sprintf("%020d_%s", msg.Timestamp.UnixNano(), msg.ID))

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(msg.bucketKey, payload)
	})
}

// GetBatch returns up to limit messages without removing them.
func (s *Store) GetBatch(limit int) ([]Message, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var messages []Message
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(messages) < limit; k, v = c.Next() {
			var msg Message
			if err := json.Unmarshal(v, &msg); err != nil {
				continue
			}
			msg.bucketKey = append([]byte(nil), k...)
			messages = append(messages, msg)
		}
		return nil
	})
	return messages, err
}

// Remove deletes the provided message from the outbox.
func (s *Store) Remove(msg Message) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(msg.bucketKey) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(msg.bucketKey)
	})
}

// Requeue re-inserts a message at the back of the queue after a failed
// delivery attempt.
func (s *Store) Requeue(msg Message) error {
	if err := s.Remove(msg); err != nil {
		return err
	}
	msg.bucketKey = nil
	msg.Timestamp = time.Now()
	return s.Enqueue(msg)
}

// Size returns the number of queued messages.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes messages older than the provided timestamp.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var msg Message
			if err := json.Unmarshal(v, &msg); err != nil {
				continue
			}
			if msg.Timestamp.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
