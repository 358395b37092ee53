// Package store defines the associative container the server drives.
//
// A Store is owned by a single goroutine. Implementations do no locking
// of their own; callers that share one across goroutines must serialize
// access.
package store

import "errors"

var (
	ErrNotExist     = errors.New("NotExist")
	ErrClosed       = errors.New("store closed")
	ErrUnknownStore = errors.New("unknown store engine")
)

// Store maps key bytes to value bytes. The store owns what it holds:
// Put copies key and value in, Get and List copy out.
type Store interface {
	// Put inserts or replaces the value of key.
	Put(key, value []byte) error

	// Get returns ErrNotExist when key is absent.
	Get(key []byte) ([]byte, error)

	// Delete reports whether key was present. Deleting an absent key
	// is not an error.
	Delete(key []byte) (bool, error)

	// List returns every key. The order is engine specific.
	List() ([][]byte, error)

	Count() int

	// Close releases every entry. Any later call fails with ErrClosed.
	Close() error
}

// Iterator walks the entries of an ordered engine.
type Iterator interface {
	Next() bool

	Error() error

	Key() []byte

	Value() []byte

	Release()
}
