// Package dictstore persists vendor-specific option descriptor overrides
// in a BoltDB file, so a deployment can teach the Option Codec about
// option codes the built-in RFC 2132 table does not recognize without
// a code change or a restart-time config reload.
package dictstore

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/dhcpradiusd/dhcpradiusd/internal/dhcp"
)

var bucketDescriptors = []byte("descriptors")

// record is the on-disk shape of one overridden Descriptor. It mirrors
// dhcp.Descriptor field-for-field but exists separately so the wire
// format is not coupled to the in-process type's layout.
type record struct {
	Name  string       `json:"name"`
	Type  dhcp.AttrType `json:"type"`
	Array bool          `json:"array"`
}

// Store is the BoltDB-backed override table. It is opened once at
// startup, loaded into an in-memory snapshot for the codec's hot path,
// and otherwise only written to by the seeding CLI, never by the
// running server (§5 Concurrency & Resource Model: dictionary lookups
// never block on disk I/O).
type Store struct {
	db *bolt.DB
}

// Open creates or opens the override database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary override database %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDescriptors)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing descriptors bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes or replaces the override descriptor for code.
func (s *Store) Put(code uint8, name string, typ dhcp.AttrType, array bool) error {
	data, err := json.Marshal(record{Name: name, Type: typ, Array: array})
	if err != nil {
		return fmt.Errorf("marshalling descriptor for code %d: %w", code, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDescriptors).Put([]byte{code}, data)
	})
}

// Delete removes the override for code, if any.
func (s *Store) Delete(code uint8) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDescriptors).Delete([]byte{code})
	})
}

// snapshot is an in-memory dhcp.Dictionary loaded once from the store.
// It never touches BoltDB again, so Lookup is lock-free and allocation
// free on the hot path.
type snapshot struct {
	entries map[uint8]dhcp.Descriptor
}

func (d *snapshot) Lookup(code uint8) (dhcp.Descriptor, bool) {
	desc, ok := d.entries[code]
	return desc, ok
}

// Load reads every override row into an in-memory dhcp.Dictionary
// snapshot, suitable as the Override half of a dhcp.OverlayDictionary.
func (s *Store) Load() (dhcp.Dictionary, error) {
	entries := make(map[uint8]dhcp.Descriptor)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDescriptors)
		return b.ForEach(func(k, v []byte) error {
			if len(k) != 1 {
				return fmt.Errorf("malformed descriptor key %x", k)
			}
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshalling descriptor for code %d: %w", k[0], err)
			}
			entries[k[0]] = dhcp.Descriptor{
				Code:  k[0],
				Name:  rec.Name,
				Type:  rec.Type,
				Array: rec.Array,
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading dictionary overrides: %w", err)
	}
	return &snapshot{entries: entries}, nil
}
