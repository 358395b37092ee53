// Package storage picks a store engine by name.
package storage

import (
	"fmt"
	"strings"

	"github.com/korthochain/kvm/pkg/storage/store"
	"github.com/korthochain/kvm/pkg/storage/store/memstore"
	"github.com/korthochain/kvm/pkg/storage/store/orderedstore"
)

const (
	EngineHash    = "hash"
	EngineOrdered = "ordered"
)

// New builds an empty store of the named engine. An empty name selects
// the hash engine.
func New(engine string) (store.Store, error) {
	switch strings.ToLower(engine) {
	case "", EngineHash:
		return memstore.New(), nil
	case EngineOrdered:
		return orderedstore.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownStore, engine)
	}
}
