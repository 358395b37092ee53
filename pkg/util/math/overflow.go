package math

import "fmt"

const (
	MINUINT32 = uint32(0)
	MAXUINT32 = ^MINUINT32
)

// AddUint32Overflow adds every b to a and fails instead of wrapping
// past MAXUINT32. Wire lengths are 32 bits wide, so frame sizes are
// summed with it.
func AddUint32Overflow(a uint32, b ...uint32) (uint32, error) {
	for _, v := range b {
		if MAXUINT32-a < v {
			return 0, fmt.Errorf("uint32 add overflow")
		}
		a += v
	}

	return a, nil
}

// LenUint32 converts a slice length to a wire length.
func LenUint32(n int) (uint32, error) {
	if n < 0 || uint64(n) > uint64(MAXUINT32) {
		return 0, fmt.Errorf("length %d overflows uint32", n)
	}
	return uint32(n), nil
}
