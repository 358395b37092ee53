package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/korthochain/kvm/pkg/dispatcher"
	"github.com/korthochain/kvm/pkg/storage/store"
	"go.uber.org/zap"
)

var (
	ErrInvalidParam   = errors.New("invalid parameter")
	ErrAlreadyRunning = errors.New("server already running")
)

const (
	defaultMaxConnections = 64
	defaultPipelineDepth  = 16
)

// Config is the configuration for creating a Server.
type Config struct {
	// Address to listen on, ":55555" style.
	Address string

	// MaxConnections bounds the connections served at once. A connection
	// accepted beyond it is closed right away.
	MaxConnections int

	// MaxFrameSize bounds a request body. A client announcing a larger
	// frame is disconnected.
	MaxFrameSize uint32

	// PipelineDepth is how many requests of one connection may wait for
	// their reply before the server stops reading from it.
	PipelineDepth int

	// IdleTimeout closes a connection that does not complete a frame in
	// time. Zero disables it.
	IdleTimeout time.Duration

	// WriteTimeout closes a connection that does not take its reply in
	// time. Zero disables it.
	WriteTimeout time.Duration

	// Limiter throttles new connections per remote IP. Nil disables it.
	Limiter *LimiterConfig

	Logger *zap.Logger
}

// LimiterConfig configures the per-IP admission limiter.
type LimiterConfig struct {
	Rate      float64
	Burst     int
	WhiteList []string
}

// Server owns the listener, every client connection, the dispatcher
// and the store. Only the goroutine running Run touches the store, the
// dispatcher and the connection table.
type Server struct {
	// 64-bit atomics first for alignment on 32-bit platforms.
	accepted uint64
	rejected uint64
	active   int64
	keys     int64

	cfg    Config
	st     store.Store
	dp     *dispatcher.Dispatcher
	lis    net.Listener
	admit  *admission
	logger *zap.Logger

	conns map[uuid.UUID]*conn

	events   chan event
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  int32
	wg       sync.WaitGroup
	started  time.Time
}

// Stats is a snapshot of the server counters.
type Stats struct {
	Connections int64             `json:"connections"`
	Accepted    uint64            `json:"accepted"`
	Rejected    uint64            `json:"rejected"`
	Keys        int64             `json:"keys"`
	Uptime      string            `json:"uptime"`
	Requests    uint64            `json:"requests"`
	BadRequests uint64            `json:"badrequests"`
	PerOp       map[string]uint64 `json:"perop"`
}

type connState int

const (
	stateAccepted connState = iota
	stateAwaitingFrame
	stateProcessing
	stateClosing
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateAwaitingFrame:
		return "awaiting-frame"
	case stateProcessing:
		return "processing"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// conn is one client connection. state and outClosed belong to the
// control loop; the reader and writer goroutines only use the socket
// and the channels.
type conn struct {
	id     uuid.UUID
	nc     net.Conn
	remote string
	logger *zap.Logger

	state     connState
	outClosed bool

	// out carries encoded replies to the writer, in request order.
	out chan []byte
	// inflight holds one token per request read but not yet answered.
	inflight chan struct{}
	// quit is closed once the connection is deregistered.
	quit chan struct{}
}

type eventKind int

const (
	evAccept eventKind = iota
	evAcceptFailed
	evFrame
	evReadDone
	evClosed
)

type event struct {
	kind eventKind
	nc   net.Conn
	c    *conn
	body []byte
	err  error
}
