package codec

import (
	"fmt"

	kmath "github.com/korthochain/kvm/pkg/util/math"
)

// DecodeRequest decodes a request body (the frame without its length
// prefix). Key and Value alias body.
func DecodeRequest(body []byte) (Request, error) {
	c := NewCursor(body)
	id, err := c.Uint8()
	if err != nil {
		return Request{}, ErrEmptyRequest
	}

	req := Request{Op: OpID(id)}
	switch req.Op {
	case OpPut:
		klen, err := c.Uint32()
		if err != nil {
			return req, err
		}
		vlen, err := c.Uint32()
		if err != nil {
			return req, err
		}
		if req.Key, err = c.Bytes(klen); err != nil {
			return req, err
		}
		if req.Value, err = c.Bytes(vlen); err != nil {
			return req, err
		}
	case OpGet, OpDelete:
		if req.Key, err = c.LenBytes(); err != nil {
			return req, err
		}
	case OpList, OpCount:
	default:
		return req, fmt.Errorf("%w: %d", ErrUnknownOp, id)
	}

	return req, c.Done()
}

// AppendRequest appends the encoded body of req to dst.
func AppendRequest(dst []byte, req Request) ([]byte, error) {
	switch req.Op {
	case OpPut:
		klen, err := kmath.LenUint32(len(req.Key))
		if err != nil {
			return dst, ErrTooLarge
		}
		vlen, err := kmath.LenUint32(len(req.Value))
		if err != nil {
			return dst, ErrTooLarge
		}
		if _, err := kmath.AddUint32Overflow(1+2*LenSize, klen, vlen); err != nil {
			return dst, ErrTooLarge
		}
		dst = append(dst, byte(req.Op))
		dst = appendUint32(dst, klen)
		dst = appendUint32(dst, vlen)
		dst = append(dst, req.Key...)
		return append(dst, req.Value...), nil
	case OpGet, OpDelete:
		klen, err := kmath.LenUint32(len(req.Key))
		if err != nil {
			return dst, ErrTooLarge
		}
		if _, err := kmath.AddUint32Overflow(1+LenSize, klen); err != nil {
			return dst, ErrTooLarge
		}
		dst = append(dst, byte(req.Op))
		dst = appendUint32(dst, klen)
		return append(dst, req.Key...), nil
	default:
		// List, Count and anything else is a bare id; the server decides
		// whether the id is known.
		return append(dst, byte(req.Op)), nil
	}
}

// Encode returns the body of req.
func (req Request) Encode() ([]byte, error) {
	size := 1 + 2*LenSize + len(req.Key) + len(req.Value)
	return AppendRequest(make([]byte, 0, size), req)
}

func appendUint32(dst []byte, v uint32) []byte {
	var b [LenSize]byte
	ByteOrder.PutUint32(b[:], v)
	return append(dst, b[:]...)
}
