package smf

import "fmt"

// maxVarLenBytes caps a decoded variable-length quantity at four bytes,
// the widest value the format allows (28 bits).
const maxVarLenBytes = 4

// AppendVarLen appends the minimal variable-length encoding of v to dst:
// 7-bit groups, most significant first, high bit set on every group but
// the last.
func AppendVarLen(dst []byte, v uint32) []byte {
	if v == 0 {
		return append(dst, 0x00)
	}
	var groups [maxVarLenBytes]byte
	n := 0
	for v > 0 {
		groups[n] = byte(v & 0x7F)
		v >>= 7
		n++
	}
	for i := n - 1; i > 0; i-- {
		dst = append(dst, groups[i]|0x80)
	}
	return append(dst, groups[0])
}

// ReadVarLen decodes a variable-length quantity from data starting at
// off. It returns the value and the offset just past the terminating
// byte. Input ending mid-quantity yields ErrTruncated; more than four
// continuation-flagged bytes yields ErrVarLen.
func ReadVarLen(data []byte, off int) (uint32, int, error) {
	var v uint32
	for i := 0; i < maxVarLenBytes; i++ {
		if off >= len(data) {
			return 0, off, fmt.Errorf("%w: input ended inside a variable-length quantity", ErrTruncated)
		}
		b := data[off]
		off++
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, off, nil
		}
	}
	return 0, off, fmt.Errorf("%w: no terminator within %d bytes", ErrVarLen, maxVarLenBytes)
}
