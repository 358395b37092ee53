package server

import (
	"bufio"
	"time"

	"github.com/korthochain/kvm/pkg/codec"
)

// readLoop accumulates one frame at a time from c and hands complete
// frames to the control loop. It stops reading once PipelineDepth
// requests are waiting for their replies.
func (s *Server) readLoop(c *conn) {
	defer s.wg.Done()

	br := bufio.NewReader(c.nc)
	for {
		if s.cfg.IdleTimeout > 0 {
			c.nc.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}

		body, err := codec.ReadFrame(br, s.cfg.MaxFrameSize)
		if err != nil {
			s.post(event{kind: evReadDone, c: c, err: err})
			return
		}

		select {
		case c.inflight <- struct{}{}:
		case <-c.quit:
			return
		}

		if !s.post(event{kind: evFrame, c: c, body: body}) {
			return
		}
	}
}

// writeLoop sends replies in order. Replies queued back to back are
// flushed together. When out is closed the remaining replies are
// written and the socket is closed.
func (s *Server) writeLoop(c *conn) {
	defer s.wg.Done()

	bw := bufio.NewWriter(c.nc)
	for body := range c.out {
		if s.cfg.WriteTimeout > 0 {
			c.nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}

		err := codec.WriteFrame(bw, body)
		if err == nil && len(c.out) == 0 {
			err = bw.Flush()
		}
		<-c.inflight

		if err != nil {
			// Part of a reply may be on the wire already; the framing
			// of this connection cannot be trusted any more.
			s.post(event{kind: evClosed, c: c, err: err})
			return
		}
	}

	err := bw.Flush()
	c.nc.Close()
	s.post(event{kind: evClosed, c: c, err: err})
}
