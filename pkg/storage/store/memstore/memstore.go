// Package memstore is the hash engine: a plain Go map keyed by the key
// bytes.
package memstore

import (
	"github.com/korthochain/kvm/pkg/storage/store"
)

type memStore struct {
	m      map[string][]byte
	closed bool
}

func New() store.Store {
	return &memStore{m: make(map[string][]byte)}
}

func (s *memStore) Put(key, value []byte) error {
	if s.closed {
		return store.ErrClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	// string(key) copies the key; the previous value, if any, is
	// dropped with the map slot.
	s.m[string(key)] = v
	return nil
}

func (s *memStore) Get(key []byte) ([]byte, error) {
	if s.closed {
		return nil, store.ErrClosed
	}
	v, ok := s.m[string(key)]
	if !ok {
		return nil, store.ErrNotExist
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *memStore) Delete(key []byte) (bool, error) {
	if s.closed {
		return false, store.ErrClosed
	}
	k := string(key)
	if _, ok := s.m[k]; !ok {
		return false, nil
	}
	delete(s.m, k)
	return true, nil
}

func (s *memStore) List() ([][]byte, error) {
	if s.closed {
		return nil, store.ErrClosed
	}
	keys := make([][]byte, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, []byte(k))
	}
	return keys, nil
}

func (s *memStore) Count() int {
	return len(s.m)
}

func (s *memStore) Close() error {
	if s.closed {
		return store.ErrClosed
	}
	s.m = nil
	s.closed = true
	return nil
}
