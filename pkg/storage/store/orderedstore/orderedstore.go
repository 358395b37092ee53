// Package orderedstore is the ordered engine, built on the goleveldb
// in-memory skiplist. Keys are listed in byte order.
package orderedstore

import (
	"github.com/korthochain/kvm/pkg/storage/store"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
)

// Option tunes a new ordered store.
type Option func(*orderedStore)

// WithCompactThreshold sets how many dead arena bytes are tolerated
// before the arena is rebuilt.
func WithCompactThreshold(n int) Option {
	return func(s *orderedStore) {
		s.compactMin = n
	}
}

func New(opts ...Option) store.Store {
	s := &orderedStore{
		db:         memdb.New(comparer.DefaultComparer, 0),
		compactMin: minCompactBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *orderedStore) Put(key, value []byte) error {
	if s.closed {
		return store.ErrClosed
	}
	// memdb copies key and value into its arena.
	if err := s.db.Put(key, value); err != nil {
		return err
	}
	s.maybeCompact()
	return nil
}

func (s *orderedStore) Get(key []byte) ([]byte, error) {
	if s.closed {
		return nil, store.ErrClosed
	}
	v, err := s.db.Get(key)
	switch {
	case err == memdb.ErrNotFound:
		return nil, store.ErrNotExist
	case err != nil:
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *orderedStore) Delete(key []byte) (bool, error) {
	if s.closed {
		return false, store.ErrClosed
	}
	err := s.db.Delete(key)
	if err == memdb.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	s.maybeCompact()
	return true, nil
}

func (s *orderedStore) List() ([][]byte, error) {
	if s.closed {
		return nil, store.ErrClosed
	}
	keys := make([][]byte, 0, s.db.Len())
	itr := s.NewIterator(nil, nil)
	defer itr.Release()
	for itr.Next() {
		keys = append(keys, itr.Key())
	}
	return keys, itr.Error()
}

func (s *orderedStore) Count() int {
	if s.closed {
		return 0
	}
	return s.db.Len()
}

func (s *orderedStore) Close() error {
	if s.closed {
		return store.ErrClosed
	}
	s.db.Reset()
	s.db = nil
	s.closed = true
	return nil
}

// maybeCompact copies the live entries into a fresh arena once the dead
// bytes outweigh them, so replaced and deleted values are really freed.
func (s *orderedStore) maybeCompact() {
	live := s.db.Size()
	dead := s.arenaSize() - live
	if dead < s.compactMin || dead < live {
		return
	}

	fresh := memdb.New(comparer.DefaultComparer, live)
	itr := s.db.NewIterator(nil)
	for itr.Next() {
		// Put copies, so the old arena can go right after.
		fresh.Put(itr.Key(), itr.Value())
	}
	itr.Release()
	s.db = fresh
}

// arenaSize is what the append-only arena holds, dead bytes included.
func (s *orderedStore) arenaSize() int {
	return s.db.Capacity() - s.db.Free()
}
