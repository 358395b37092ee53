// Package dispatcher turns a raw request body into a raw reply body by
// running the matching store operation.
package dispatcher

import (
	"fmt"
	"sync/atomic"

	"github.com/korthochain/kvm/pkg/codec"
	"github.com/korthochain/kvm/pkg/storage/store"
	"go.uber.org/zap"
)

// New returns a dispatcher that drives st. The dispatcher, like the
// store, must only be used from one goroutine at a time.
func New(st store.Store, logger *zap.Logger) (*Dispatcher, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidParam)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{st: st, logger: logger}, nil
}

// Handle decodes raw, executes it and returns the encoded reply. It
// never fails: anything that cannot be fully satisfied is answered with
// BadRequest, and a panic while serving one request only costs that
// request.
func (d *Dispatcher) Handle(raw []byte) (reply []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("request handler panic", zap.Any("panic", r), zap.Int("size", len(raw)))
			atomic.AddUint64(&d.bad, 1)
			reply = badRequest()
		}
	}()

	req, err := codec.DecodeRequest(raw)
	if err != nil {
		d.logger.Debug("malformed request", zap.Error(err), zap.Int("size", len(raw)))
		atomic.AddUint64(&d.malformed, 1)
		atomic.AddUint64(&d.bad, 1)
		return badRequest()
	}

	body, err := codec.EncodeReply(d.Execute(req))
	if err != nil {
		d.logger.Warn("reply not encodable", zap.Stringer("op", req.Op), zap.Error(err))
		atomic.AddUint64(&d.bad, 1)
		return badRequest()
	}
	return body
}

// Execute runs a decoded request. Store failures other than a missing
// key are logged and answered with BadRequest.
func (d *Dispatcher) Execute(req codec.Request) codec.Reply {
	if !req.Op.Known() || dealRegister[req.Op] == nil {
		atomic.AddUint64(&d.bad, 1)
		return codec.BadRequest()
	}

	reply, err := dealRegister[req.Op](d.st, req)
	if err != nil {
		d.logger.Error("store operation failed", zap.Stringer("op", req.Op), zap.Error(err))
	}
	if reply.Status != codec.StatusOK {
		atomic.AddUint64(&d.bad, 1)
	}
	atomic.AddUint64(&d.counters[req.Op].served, 1)
	return reply
}

// Stats returns the counters. It is safe to call from any goroutine.
func (d *Dispatcher) Stats() Stats {
	s := Stats{
		Requests:    atomic.LoadUint64(&d.malformed),
		BadRequests: atomic.LoadUint64(&d.bad),
		PerOp:       make(map[string]uint64, codec.MaxOp),
	}
	for op := codec.OpPut; op <= codec.MaxOp; op++ {
		n := atomic.LoadUint64(&d.counters[op].served)
		s.PerOp[op.String()] = n
		s.Requests += n
	}
	return s
}

func badRequest() []byte {
	return []byte{byte(codec.StatusBadRequest)}
}
