package codec

// Cursor walks a body and fails closed: once a read would run past the
// end, it returns ErrTruncated and consumes nothing.
type Cursor struct {
	buf []byte
	off int
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

func (c *Cursor) Uint8() (uint8, error) {
	if c.Remaining() < 1 {
		return 0, ErrTruncated
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

func (c *Cursor) Uint32() (uint32, error) {
	if c.Remaining() < LenSize {
		return 0, ErrTruncated
	}
	v := ByteOrder.Uint32(c.buf[c.off:])
	c.off += LenSize
	return v, nil
}

// Bytes returns the next n bytes without copying. n comes off the wire
// and is compared against Remaining before any slicing.
func (c *Cursor) Bytes(n uint32) ([]byte, error) {
	if uint64(n) > uint64(c.Remaining()) {
		return nil, ErrTruncated
	}
	end := c.off + int(n)
	v := c.buf[c.off:end:end]
	c.off = end
	return v, nil
}

// LenBytes reads a length field followed by that many bytes.
func (c *Cursor) LenBytes() ([]byte, error) {
	n, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	return c.Bytes(n)
}

// Done fails when unread bytes are left.
func (c *Cursor) Done() error {
	if c.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}
