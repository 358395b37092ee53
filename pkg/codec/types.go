// Package codec implements the kvm wire format: 4-byte little-endian
// length-prefixed frames carrying one request or one reply body.
package codec

import (
	"encoding/binary"
	"errors"
)

// OpID identifies the operation carried by a request body.
type OpID uint8

const (
	OpNoop OpID = iota
	OpPut
	OpGet
	OpDelete
	OpList
	OpCount

	// MaxOp is the highest known operation id.
	MaxOp = OpCount
)

// Status is the first byte of every reply body.
type Status uint8

const (
	StatusOK Status = iota
	StatusBadRequest
)

// Kind says which payload an Ok reply carries.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindValue
	KindKeys
	KindCount
)

const (
	// HeaderSize is the size of the frame length prefix.
	HeaderSize = 4
	// LenSize is the size of every length/count field inside a body.
	LenSize = 4

	// DefaultMaxFrameSize bounds a frame body when the caller gives no limit.
	DefaultMaxFrameSize = 64 << 20
)

// ByteOrder is used for every integer on the wire.
var ByteOrder = binary.LittleEndian

var (
	ErrEmptyRequest  = errors.New("empty request")
	ErrUnknownOp     = errors.New("unknown operation")
	ErrTruncated     = errors.New("truncated body")
	ErrTrailingBytes = errors.New("trailing bytes after body")
	ErrTooLarge      = errors.New("body exceeds frame limit")
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrBadStatus     = errors.New("unknown reply status")
)

// Request is one decoded request. Key and Value are only meaningful for
// the operations that carry them.
type Request struct {
	Op    OpID
	Key   []byte
	Value []byte
}

// Reply is one reply. Value, Keys and Count are read according to Kind
// and only when Status is StatusOK.
type Reply struct {
	Status Status
	Kind   Kind
	Value  []byte
	Keys   [][]byte
	Count  uint32
}

func (op OpID) String() string {
	switch op {
	case OpNoop:
		return "noop"
	case OpPut:
		return "put"
	case OpGet:
		return "get"
	case OpDelete:
		return "delete"
	case OpList:
		return "list"
	case OpCount:
		return "count"
	}
	return "unknown"
}

// Known reports whether op names an operation the server executes.
func (op OpID) Known() bool {
	return op >= OpPut && op <= MaxOp
}

// Ok builds an empty Ok reply (Put, Delete).
func Ok() Reply { return Reply{Status: StatusOK, Kind: KindEmpty} }

// OkValue builds a Get reply.
func OkValue(v []byte) Reply { return Reply{Status: StatusOK, Kind: KindValue, Value: v} }

// OkKeys builds a List reply.
func OkKeys(keys [][]byte) Reply { return Reply{Status: StatusOK, Kind: KindKeys, Keys: keys} }

// OkCount builds a Count reply.
func OkCount(n uint32) Reply { return Reply{Status: StatusOK, Kind: KindCount, Count: n} }

// BadRequest builds the catch-all failure reply.
func BadRequest() Reply { return Reply{Status: StatusBadRequest} }
