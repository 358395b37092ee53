package codec

import (
	kmath "github.com/korthochain/kvm/pkg/util/math"
)

// ReplySize returns the encoded body size of r.
func ReplySize(r Reply) (uint32, error) {
	if r.Status != StatusOK {
		return 1, nil
	}

	switch r.Kind {
	case KindValue:
		vlen, err := kmath.LenUint32(len(r.Value))
		if err != nil {
			return 0, ErrTooLarge
		}
		n, err := kmath.AddUint32Overflow(1+LenSize, vlen)
		if err != nil {
			return 0, ErrTooLarge
		}
		return n, nil
	case KindKeys:
		if _, err := kmath.LenUint32(len(r.Keys)); err != nil {
			return 0, ErrTooLarge
		}
		n := uint32(1 + LenSize)
		for _, k := range r.Keys {
			klen, err := kmath.LenUint32(len(k))
			if err != nil {
				return 0, ErrTooLarge
			}
			if n, err = kmath.AddUint32Overflow(n, LenSize, klen); err != nil {
				return 0, ErrTooLarge
			}
		}
		return n, nil
	case KindCount:
		return 1 + LenSize, nil
	default:
		return 1, nil
	}
}

// EncodeReply returns the body of r. It fails with ErrTooLarge, and
// allocates nothing, when r cannot be described by 32-bit lengths.
func EncodeReply(r Reply) ([]byte, error) {
	size, err := ReplySize(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(r.Status))
	if r.Status != StatusOK {
		return buf, nil
	}

	switch r.Kind {
	case KindValue:
		buf = appendUint32(buf, uint32(len(r.Value)))
		buf = append(buf, r.Value...)
	case KindKeys:
		buf = appendUint32(buf, uint32(len(r.Keys)))
		for _, k := range r.Keys {
			buf = appendUint32(buf, uint32(len(k)))
			buf = append(buf, k...)
		}
	case KindCount:
		buf = appendUint32(buf, r.Count)
	}
	return buf, nil
}

// KindOf returns the reply payload an Ok answer to op carries.
func KindOf(op OpID) Kind {
	switch op {
	case OpGet:
		return KindValue
	case OpList:
		return KindKeys
	case OpCount:
		return KindCount
	}
	return KindEmpty
}

// DecodeReply decodes the reply to a request of operation op. The
// layout of an Ok body depends on op, so the caller has to supply it.
func DecodeReply(op OpID, body []byte) (Reply, error) {
	c := NewCursor(body)
	st, err := c.Uint8()
	if err != nil {
		return Reply{}, err
	}

	r := Reply{Status: Status(st)}
	switch r.Status {
	case StatusBadRequest:
		return r, c.Done()
	case StatusOK:
	default:
		return r, ErrBadStatus
	}

	r.Kind = KindOf(op)
	switch r.Kind {
	case KindValue:
		if r.Value, err = c.LenBytes(); err != nil {
			return r, err
		}
	case KindKeys:
		n, err := c.Uint32()
		if err != nil {
			return r, err
		}
		// every key needs at least its length field
		if uint64(n)*LenSize > uint64(c.Remaining()) {
			return r, ErrTruncated
		}
		r.Keys = make([][]byte, 0, n)
		for i := uint32(0); i < n; i++ {
			k, err := c.LenBytes()
			if err != nil {
				return r, err
			}
			r.Keys = append(r.Keys, k)
		}
	case KindCount:
		if r.Count, err = c.Uint32(); err != nil {
			return r, err
		}
	}
	return r, c.Done()
}
