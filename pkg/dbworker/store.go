package dbworker

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ubinix-warun/suibase/pkg/types"
)

var bucketEvents = []byte("events")

// Store is a bbolt-backed sink for EventRow records, keyed
// workdir_idx/package_uuid/received_at so ListByWorkdir can range-scan one
// workdir's events by key prefix.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (creating if absent) the bbolt file under dataDir.
func OpenStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "suibase.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func eventKey(row types.EventRow) []byte {
	return []byte(fmt.Sprintf("%s/%s/%s", row.WorkdirIdx, row.PackageUUID, row.ReceivedAt.Format(time.RFC3339Nano)))
}

// PutEvent persists one EventRow.
func (s *Store) PutEvent(row types.EventRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		return b.Put(eventKey(row), data)
	})
}

// ListByWorkdir returns every persisted EventRow for one workdir, in key
// byte order: grouped by package_uuid, then by the RFC3339Nano text of
// ReceivedAt. That is not strictly received order, since RFC3339Nano
// drops trailing zeros from the fractional seconds.
func (s *Store) ListByWorkdir(idx types.WorkdirIdx) ([]types.EventRow, error) {
	prefix := []byte(idx.String() + "/")
	var rows []types.EventRow

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var row types.EventRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, err
}

// Count returns the total number of persisted events, across all workdirs.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
