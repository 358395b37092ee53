package statusserver

import (
	"time"

	"github.com/buaazp/fasthttprouter"
	"github.com/korthochain/kvm/pkg/server"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	Success = 0
	ErrData = -1
)

// Shutdown waits for keep-alive connections to go idle, so both timeouts
// must be set.
const (
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 5 * time.Second
)

type Option func(*fasthttp.Server)

// WithIdleTimeout bounds how long a keep-alive connection may wait for
// its next request.
func WithIdleTimeout(d time.Duration) Option {
	return func(srv *fasthttp.Server) { srv.IdleTimeout = d }
}

// StatsProvider is the part of *server.Server the endpoint reads.
type StatsProvider interface {
	Stats() server.Stats
}

type Server struct {
	sp     StatsProvider
	r      *fasthttprouter.Router
	srv    *fasthttp.Server
	logger *zap.Logger
}

type resultStats struct {
	ErrorCode int          `json:"code"`
	ErrorMsg  string       `json:"message"`
	Result    server.Stats `json:"result"`
}
