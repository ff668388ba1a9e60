package keystore

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the reference configuration's key ceiling.
const DefaultCapacity = 16

// Store errors.
var (
	// ErrDuplicateID is returned by Insert when a live record already holds
	// the same key id.
	ErrDuplicateID = errors.New("key id already exists")
	// ErrFull is returned by Insert when the store is at capacity.
	ErrFull = errors.New("key store is full")
)

// Store is a fixed-capacity, append-only table of key records. Lookup is an
// exact-match scan; with the capacity bounded at a handful of records there
// is no need for an index. The store is not safe for concurrent use — the
// engine serializes all access behind its dispatch mutex.
type Store struct {
	capacity int
	records  []*Record
}

// NewStore creates an empty store with the given capacity. A non-positive
// capacity falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		records:  make([]*Record, 0, capacity),
	}
}

// Len returns the number of live records.
func (s *Store) Len() int { return len(s.records) }

// Capacity returns the maximum number of records the store will hold.
func (s *Store) Capacity() int { return s.capacity }

// Full reports whether the store is at capacity.
func (s *Store) Full() bool { return len(s.records) >= s.capacity }

// Find returns the live record with the given id, or nil if absent.
// Matching is byte-for-byte on the identifier.
func (s *Store) Find(keyID string) *Record {
	for _, r := range s.records {
		if r.keyID == keyID {
			return r
		}
	}
	return nil
}

// Insert appends a record. It fails with ErrDuplicateID if a record with the
// same id is live, and with ErrFull if the store is at capacity. The store is
// unchanged on failure.
func (s *Store) Insert(r *Record) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if s.Find(r.keyID) != nil {
		return ErrDuplicateID
	}
	if s.Full() {
		return ErrFull
	}
	s.records = append(s.records, r)
	return nil
}

// SnapshotPublic returns the public metadata of every live record in
// creation order. No secret material appears in the result.
func (s *Store) SnapshotPublic() []KeyInfo {
	infos := make([]KeyInfo, 0, len(s.records))
	for _, r := range s.records {
		infos = append(infos, r.Info())
	}
	return infos
}

// Wipe zeroizes every record's secret material and empties the store.
func (s *Store) Wipe() {
	for _, r := range s.records {
		r.wipe()
	}
	s.records = s.records[:0]
}
