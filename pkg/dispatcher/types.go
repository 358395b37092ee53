package dispatcher

import (
	"errors"

	"github.com/korthochain/kvm/pkg/codec"
	"github.com/korthochain/kvm/pkg/storage/store"
	"go.uber.org/zap"
)

var ErrInvalidParam = errors.New("invalid parameter")

// dealFunc executes one decoded request against the store.
type dealFunc func(store.Store, codec.Request) (codec.Reply, error)

// dealRegister is indexed by operation id. Nil slots are unknown
// operations, Noop included.
var dealRegister [codec.MaxOp + 1]dealFunc

type Dispatcher struct {
	// 64-bit atomics first for alignment on 32-bit platforms.
	counters  [codec.MaxOp + 1]opCounter
	bad       uint64
	malformed uint64

	st     store.Store
	logger *zap.Logger
}

type opCounter struct {
	served uint64
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	// Requests counts every request seen, malformed ones included.
	Requests    uint64            `json:"requests"`
	BadRequests uint64            `json:"badrequests"`
	PerOp       map[string]uint64 `json:"perop"`
}
