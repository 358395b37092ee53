package orderedstore

import (
	"github.com/korthochain/kvm/pkg/storage/store"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// NewIterator walks the keys that carry prefix, starting at start (or
// the first key after it). The iterator must not outlive a mutation of
// the store. On a closed store it is empty and Error reports ErrClosed.
func (s *orderedStore) NewIterator(prefix []byte, start []byte) store.Iterator {
	if s.closed {
		return &orderedIterator{itr: iterator.NewEmptyIterator(store.ErrClosed)}
	}

	var rng *util.Range
	if prefix != nil {
		rng = util.BytesPrefix(prefix)
	}
	itr := s.db.NewIterator(rng)
	if start != nil {
		itr.Seek(start)
		return &orderedIterator{itr: itr, seeked: true}
	}
	return &orderedIterator{itr: itr}
}

func (itr *orderedIterator) Next() bool {
	if itr.seeked {
		itr.seeked = false
		return itr.itr.Valid()
	}
	return itr.itr.Next()
}

func (itr *orderedIterator) Error() error {
	return itr.itr.Error()
}

func (itr *orderedIterator) Key() []byte {
	k := itr.itr.Key()
	if k == nil {
		return nil
	}
	out := make([]byte, len(k))
	copy(out, k)
	return out
}

func (itr *orderedIterator) Value() []byte {
	v := itr.itr.Value()
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (itr *orderedIterator) Release() {
	itr.itr.Release()
}
