package codec

import (
	"fmt"
	"io"

	kmath "github.com/korthochain/kvm/pkg/util/math"
)

// ReadFrame reads one length prefix and exactly that many body bytes.
// A declared length above maxSize is rejected before anything is allocated.
// A peer that closes between frames yields io.EOF; a peer that closes
// inside a frame yields io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, maxSize uint32) ([]byte, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	n := ByteOrder.Uint32(hdr[:])
	if n > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, maxSize)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

// AppendFrame appends the length prefix and body to dst.
func AppendFrame(dst, body []byte) ([]byte, error) {
	n, err := kmath.LenUint32(len(body))
	if err != nil {
		return dst, ErrTooLarge
	}
	dst = appendUint32(dst, n)
	return append(dst, body...), nil
}

// WriteFrame writes body with its length prefix in a single Write call
// so a frame is never interleaved with another writer's.
func WriteFrame(w io.Writer, body []byte) error {
	buf, err := AppendFrame(make([]byte, 0, HeaderSize+len(body)), body)
	if err != nil {
		return err
	}
	n, err := w.Write(buf)
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	return err
}
