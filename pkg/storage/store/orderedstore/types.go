package orderedstore

import (
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/memdb"
)

// minCompactBytes keeps small stores from rebuilding their arena on
// every overwrite.
const minCompactBytes = 1 << 20

type orderedStore struct {
	// db.Size() counts live entries only; overwrites and deletes leave
	// their old bytes behind in the arena until the next compaction.
	db *memdb.DB

	compactMin int
	closed     bool
}

type orderedIterator struct {
	itr iterator.Iterator

	// seeked means itr already sits on the first entry to return.
	seeked bool
}
