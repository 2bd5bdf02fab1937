package varint

import (
	"errors"
	"fmt"
)

// MaxLen is the longest encoding Encode can produce
const MaxLen = 9

// ErrMalformedInput is returned when a decode would read past the end of the buffer
var ErrMalformedInput = errors.New("malformed varint")

// Tier boundaries of the encoding. Values below oneByteLimit are stored as-is,
// values below twoByteLimit use a 241..248 prefix byte plus one byte, values
// below threeByteLimit use prefix 249 plus two big-endian bytes. Everything
// larger is a 250..255 prefix followed by 3..8 big-endian bytes.
const (
	oneByteLimit   = 241
	twoByteLimit   = 2288
	threeByteLimit = 67824

	twoBytePrefix   = 241
	threeBytePrefix = 249
	fixedPrefix     = 250
)

// Len returns the number of bytes Encode(v) would produce
func Len(v uint64) int {
	switch {
	case v < oneByteLimit:
		return 1
	case v < twoByteLimit:
		return 2
	case v < threeByteLimit:
		return 3
	}
	n := 3
	for n < 8 && v >= uint64(1)<<(8*n) {
		n++
	}
	return n + 1
}

// Put writes the encoding of v into buf and returns the number of bytes written.
// buf must have room for at least Len(v) bytes; MaxLen always suffices.
func Put(buf []byte, v uint64) int {
	switch {
	case v < oneByteLimit:
		buf[0] = byte(v)
		return 1
	case v < twoByteLimit:
		diff := v - 240
		buf[0] = byte(diff/256) + twoBytePrefix
		buf[1] = byte(diff % 256)
		return 2
	case v < threeByteLimit:
		diff := v - twoByteLimit
		buf[0] = threeBytePrefix
		buf[1] = byte(diff / 256)
		buf[2] = byte(diff % 256)
		return 3
	}

	n := Len(v) - 1
	buf[0] = byte(fixedPrefix + n - 3)
	putBigEndian(buf[1:1+n], v)
	return n + 1
}

// Encode returns the variable-length encoding of v
func Encode(v uint64) []byte {
	var buf [MaxLen]byte
	n := Put(buf[:], v)
	out := make([]byte, n)
	copy(out, buf[:n])
	return out
}

// Append appends the encoding of v to id and returns the extended slice.
// Used to extend an identifier prefix with one more component.
func Append(id []byte, v uint64) []byte {
	var buf [MaxLen]byte
	n := Put(buf[:], v)
	return append(id, buf[:n]...)
}

// Decode reads one varint from the start of buf.
// It returns the value and the number of bytes consumed (1..9).
// The encoding is not self-synchronising: callers chaining several values
// must advance by the consumed count themselves.
func Decode(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, fmt.Errorf("%w: empty buffer", ErrMalformedInput)
	}

	first := buf[0]
	need := 1
	switch {
	case first < twoBytePrefix:
		return uint64(first), 1, nil
	case first < threeBytePrefix:
		need = 2
	case first == threeBytePrefix:
		need = 3
	default:
		need = int(first-fixedPrefix) + 4
	}

	if len(buf) < need {
		return 0, 0, fmt.Errorf("%w: prefix 0x%02x needs %d bytes, have %d", ErrMalformedInput, first, need, len(buf))
	}

	switch {
	case first < threeBytePrefix:
		return 240 + 256*uint64(first-twoBytePrefix) + uint64(buf[1]), 2, nil
	case first == threeBytePrefix:
		return twoByteLimit + 256*uint64(buf[1]) + uint64(buf[2]), 3, nil
	default:
		return readBigEndian(buf[1:need]), need, nil
	}
}

// decodeAll decodes every varint in buf, in order
func decodeAll(buf []byte) ([]uint64, error) {
	var vals []uint64
	for off := 0; off < len(buf); {
		v, n, err := Decode(buf[off:])
		if err != nil {
			return vals, fmt.Errorf("at offset %d: %w", off, err)
		}
		vals = append(vals, v)
		off += n
	}
	return vals, nil
}

func putBigEndian(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

func readBigEndian(src []byte) uint64 {
	var v uint64
	for _, b := range src {
		v = v<<8 | uint64(b)
	}
	return v
}
