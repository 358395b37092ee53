// Package client talks to a kvm server.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/korthochain/kvm/pkg/codec"
)

var (
	ErrInvalidParam = errors.New("invalid parameter")
	ErrBadRequest   = errors.New("bad request")
	ErrClosed       = errors.New("client closed")
)

const defaultDialTimeout = 5 * time.Second

type options struct {
	dialTimeout  time.Duration
	ioTimeout    time.Duration
	maxFrameSize uint32
}

type Option func(*options)

func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithIOTimeout bounds every request round trip. Zero waits forever.
func WithIOTimeout(d time.Duration) Option {
	return func(o *options) { o.ioTimeout = d }
}

func WithMaxFrameSize(n uint32) Option {
	return func(o *options) { o.maxFrameSize = n }
}

// Client is one connection to the server. It is safe for concurrent
// use; requests are sent one at a time.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	br     *bufio.Reader
	opts   options
	closed bool
}

func Dial(addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidParam)
	}
	o := options{dialTimeout: defaultDialTimeout, maxFrameSize: codec.DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := net.DialTimeout("tcp", addr, o.dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, br: bufio.NewReader(conn), opts: o}, nil
}

// RoundTrip sends one raw request body and returns the raw reply body.
// Any I/O failure closes the client.
func (c *Client) RoundTrip(body []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.opts.ioTimeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.opts.ioTimeout))
	}
	if err := codec.WriteFrame(c.conn, body); err != nil {
		c.fail()
		return nil, err
	}
	reply, err := codec.ReadFrame(c.br, c.opts.maxFrameSize)
	if err != nil {
		c.fail()
		return nil, err
	}
	return reply, nil
}

// fail drops a connection whose framing can no longer be trusted. Later
// calls return ErrClosed.
func (c *Client) fail() {
	c.closed = true
	c.conn.Close()
}

// Do sends req and decodes the reply. A BadRequest answer is returned
// as a reply, not as an error.
func (c *Client) Do(req codec.Request) (codec.Reply, error) {
	body, err := req.Encode()
	if err != nil {
		return codec.Reply{}, err
	}
	raw, err := c.RoundTrip(body)
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.DecodeReply(req.Op, raw)
}

func (c *Client) do(req codec.Request) (codec.Reply, error) {
	r, err := c.Do(req)
	if err != nil {
		return r, err
	}
	if r.Status != codec.StatusOK {
		return r, ErrBadRequest
	}
	return r, nil
}

func (c *Client) Put(key, value []byte) error {
	if key == nil || value == nil {
		return ErrInvalidParam
	}
	_, err := c.do(codec.Request{Op: codec.OpPut, Key: key, Value: value})
	return err
}

// Get returns ErrBadRequest for a missing key.
func (c *Client) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, ErrInvalidParam
	}
	r, err := c.do(codec.Request{Op: codec.OpGet, Key: key})
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

func (c *Client) Delete(key []byte) error {
	if key == nil {
		return ErrInvalidParam
	}
	_, err := c.do(codec.Request{Op: codec.OpDelete, Key: key})
	return err
}

func (c *Client) List() ([][]byte, error) {
	r, err := c.do(codec.Request{Op: codec.OpList})
	if err != nil {
		return nil, err
	}
	return r.Keys, nil
}

func (c *Client) Count() (uint32, error) {
	r, err := c.do(codec.Request{Op: codec.OpCount})
	if err != nil {
		return 0, err
	}
	return r.Count, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
