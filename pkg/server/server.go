// Package server is the connection multiplexer: one control loop serves
// every client connection against a single store.
//
// Blocking socket I/O happens in a reader and a writer goroutine per
// connection, parked on the runtime netpoller. They post readiness events
// (accepted, frame complete, failed) to the control loop, which is the
// only place requests are executed. A slow or malicious client therefore
// only ever blocks its own goroutines.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/korthochain/kvm/pkg/codec"
	"github.com/korthochain/kvm/pkg/dispatcher"
	"github.com/korthochain/kvm/pkg/storage/store"
	"go.uber.org/zap"
)

// New listens on cfg.Address and returns a server driving st. The server
// takes ownership of st and closes it when Run returns.
func New(cfg Config, st store.Store) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidParam)
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultMaxConnections
	}
	if cfg.PipelineDepth <= 0 {
		cfg.PipelineDepth = defaultPipelineDepth
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = codec.DefaultMaxFrameSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	dp, err := dispatcher.New(st, cfg.Logger.Named("dispatcher"))
	if err != nil {
		return nil, err
	}

	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		st:      st,
		dp:      dp,
		lis:     lis,
		admit:   newAdmission(cfg.Limiter),
		logger:  cfg.Logger,
		conns:   make(map[uuid.UUID]*conn, cfg.MaxConnections),
		events:  make(chan event, cfg.MaxConnections),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		started: time.Now(),
	}, nil
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

// Run serves until ctx is cancelled, Stop is called or accepting fails
// for good. The event being handled when the stop request arrives is
// finished first. On return the listener, every connection and the
// store are closed.
func (s *Server) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrAlreadyRunning
	}
	s.logger.Info("server listening", zap.Stringer("addr", s.lis.Addr()),
		zap.Int("maxconnections", s.cfg.MaxConnections))

	s.wg.Add(1)
	go s.acceptLoop()
	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("server stopping", zap.Error(ctx.Err()))
			return nil
		case <-s.stop:
			s.logger.Info("server stopping")
			return nil
		case ev := <-s.events:
			if err := s.handleEvent(ev); err != nil {
				return err
			}
		}
	}
}

// Stop asks Run to return. It does not wait for it.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Stats is safe to call from any goroutine.
func (s *Server) Stats() Stats {
	ds := s.dp.Stats()
	stats := Stats{
		Connections: atomic.LoadInt64(&s.active),
		Accepted:    atomic.LoadUint64(&s.accepted),
		Rejected:    atomic.LoadUint64(&s.rejected),
		Keys:        atomic.LoadInt64(&s.keys),
		Requests:    ds.Requests,
		BadRequests: ds.BadRequests,
		PerOp:       ds.PerOp,
		Uptime:      time.Since(s.started).Truncate(time.Second).String(),
	}
	return stats
}

func (s *Server) handleEvent(ev event) error {
	switch ev.kind {
	case evAccept:
		s.onAccept(ev.nc)
	case evAcceptFailed:
		s.logger.Error("accept failed", zap.Error(ev.err))
		return ev.err
	case evFrame:
		s.onFrame(ev.c, ev.body)
	case evReadDone:
		s.onReadDone(ev.c, ev.err)
	case evClosed:
		s.closeConn(ev.c, ev.err)
	}
	return nil
}

func (s *Server) onAccept(nc net.Conn) {
	remote := nc.RemoteAddr().String()
	if len(s.conns) >= s.cfg.MaxConnections {
		s.reject(nc, "connection limit reached")
		return
	}
	if !s.admit.allow(nc.RemoteAddr()) {
		s.reject(nc, "connection rate exceeded")
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		s.logger.Error("connection id", zap.Error(err))
		s.reject(nc, "no connection id")
		return
	}

	c := &conn{
		id:       id,
		nc:       nc,
		remote:   remote,
		logger:   s.logger.With(zap.Stringer("conn", id), zap.String("remote", remote)),
		state:    stateAccepted,
		out:      make(chan []byte, s.cfg.PipelineDepth),
		inflight: make(chan struct{}, s.cfg.PipelineDepth),
		quit:     make(chan struct{}),
	}
	s.conns[id] = c
	atomic.AddUint64(&s.accepted, 1)
	atomic.AddInt64(&s.active, 1)

	s.wg.Add(2)
	go s.readLoop(c)
	go s.writeLoop(c)

	c.state = stateAwaitingFrame
	c.logger.Debug("connection accepted", zap.Int("connections", len(s.conns)))
}

func (s *Server) reject(nc net.Conn, reason string) {
	atomic.AddUint64(&s.rejected, 1)
	s.logger.Warn("connection rejected", zap.String("remote", nc.RemoteAddr().String()),
		zap.String("reason", reason))
	nc.Close()
}

func (s *Server) onFrame(c *conn, body []byte) {
	if _, ok := s.conns[c.id]; !ok || c.state >= stateClosing {
		return
	}

	c.state = stateProcessing
	reply := s.dp.Handle(body)
	atomic.StoreInt64(&s.keys, int64(s.st.Count()))

	// The reader holds an inflight token for this frame and out is as
	// deep as inflight, so this never blocks.
	c.out <- reply
	c.state = stateAwaitingFrame
}

// onReadDone handles the end of a connection's input. A clean EOF
// between frames lets the writer flush the replies still queued; any
// other read failure drops the connection at once.
func (s *Server) onReadDone(c *conn, err error) {
	if _, ok := s.conns[c.id]; !ok {
		return
	}
	if err != io.EOF {
		s.closeConn(c, err)
		return
	}

	c.state = stateClosing
	if !c.outClosed {
		close(c.out)
		c.outClosed = true
	}
}

// closeConn deregisters c and releases its socket. It is a no-op for a
// connection that is already gone.
func (s *Server) closeConn(c *conn, err error) {
	if _, ok := s.conns[c.id]; !ok {
		return
	}
	delete(s.conns, c.id)
	atomic.AddInt64(&s.active, -1)

	logger := c.logger.With(zap.Stringer("state", c.state))
	c.state = stateClosing
	c.nc.Close()
	if !c.outClosed {
		close(c.out)
		c.outClosed = true
	}
	close(c.quit)
	c.state = stateClosed

	switch {
	case err == nil || err == io.EOF:
		logger.Debug("connection closed")
	case errors.Is(err, codec.ErrFrameTooLarge):
		logger.Warn("connection dropped", zap.Error(err))
	default:
		logger.Debug("connection failed", zap.Error(err))
	}
}

// post hands ev to the control loop. It fails once the loop is gone.
func (s *Server) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// acceptLoop retries temporary accept errors with backoff. Accept calls
// interrupted by signals are restarted by the runtime.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	var tempDelay time.Duration
	for {
		nc, err := s.lis.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if tempDelay > time.Second {
					tempDelay = time.Second
				}
				s.logger.Warn("accept error, retrying", zap.Error(err), zap.Duration("delay", tempDelay))
				time.Sleep(tempDelay)
				continue
			}
			s.post(event{kind: evAcceptFailed, err: err})
			return
		}
		tempDelay = 0

		if !s.post(event{kind: evAccept, nc: nc}) {
			nc.Close()
			return
		}
	}
}

func (s *Server) shutdown() {
	s.lis.Close()
	for _, c := range s.conns {
		s.closeConn(c, nil)
	}
	close(s.done)
	s.wg.Wait()

	// Connections accepted while the loop was winding down.
drain:
	for {
		select {
		case ev := <-s.events:
			if ev.kind == evAccept {
				ev.nc.Close()
			}
		default:
			break drain
		}
	}

	if err := s.st.Close(); err != nil {
		s.logger.Error("close store", zap.Error(err))
	}
	atomic.StoreInt64(&s.keys, 0)
	s.logger.Info("server stopped")
}
