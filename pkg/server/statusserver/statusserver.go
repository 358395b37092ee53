// Package statusserver serves the running counters of a kvm server over
// HTTP.
package statusserver

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/buaazp/fasthttprouter"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func NewServer(sp StatsProvider, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{sp: sp, r: fasthttprouter.New(), logger: logger}
	s.r.GET("/status", s.StatusHandler)
	s.r.GET("/healthz", s.HealthHandler)
	s.srv = &fasthttp.Server{
		Handler:     s.r.Handler,
		Name:        "kvmd",
		ReadTimeout: defaultReadTimeout,
		IdleTimeout: defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s.srv)
	}
	return s
}

// Serve blocks until Shutdown is called or ln fails.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("status server listening", zap.Stringer("addr", ln.Addr()))
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

// StatusHandler answers with a snapshot of the server counters.
func (s *Server) StatusHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")

	resBody, err := json.Marshal(&resultStats{ErrorCode: Success, ErrorMsg: "ok", Result: s.sp.Stats()})
	if err != nil {
		s.logger.Error("marshal stats", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		fmt.Fprintf(ctx, `{"code":%d,"message":%q}`, ErrData, err.Error())
		return
	}
	ctx.Write(resBody)
}

func (s *Server) HealthHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	ctx.WriteString("ok")
}
