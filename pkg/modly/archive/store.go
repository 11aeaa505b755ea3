package archive

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// storeVersion is bumped when the cached listing format changes.
const storeVersion = 1

// ErrNotFound is returned when a listing is not cached.
var ErrNotFound = errors.New("listing not cached")

// Listing is a cached archive listing with the file identity it was read
// from.
type Listing struct {
	Version int
	Size    int64
	Mtime   int64 // UnixNano
	Entries []Entry
}

// Encode serializes the listing using gob.
func (l *Listing) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a gob-encoded listing.
func (l *Listing) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(l)
}

// Store wraps Badger for listing persistence.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a store at dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemoryStore opens a store that lives only in memory.
func OpenMemoryStore() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the listing cached for path.
func (s *Store) Get(path string) (*Listing, error) {
	var l Listing
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(l.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Put caches a listing for path.
func (s *Store) Put(path string, l *Listing) error {
	value, err := l.Encode()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), value)
	})
}

// Count returns the number of cached listings.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Clear removes every cached listing.
func (s *Store) Clear() error {
	return s.db.DropAll()
}
