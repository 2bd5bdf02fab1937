// Package types holds the records exchanged between an image walker and the
// metadata writer, together with the name tables used to render them.
package types

import "fmt"

// ByteRange is a half-open range of absolute image offsets
type ByteRange struct {
	// First byte in the range
	Begin uint64
	// One past the last byte
	End uint64
}

// Len returns the number of bytes covered
func (r ByteRange) Len() uint64 {
	if r.End <= r.Begin {
		return 0
	}
	return r.End - r.Begin
}

// Empty reports whether the range covers nothing
func (r ByteRange) Empty() bool {
	return r.End <= r.Begin
}

// Clamp limits r to bounds
func (r ByteRange) Clamp(bounds ByteRange) ByteRange {
	return ByteRange{Begin: max(r.Begin, bounds.Begin), End: min(r.End, bounds.End)}
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Begin, r.End)
}

// BlockRange is a run of filesystem blocks
type BlockRange struct {
	// The first block in the range
	Start uint64
	// The number of blocks in the range
	Len uint64
}

// End returns one past the last block, saturating instead of wrapping
func (r BlockRange) End() uint64 {
	if r.Start+r.Len < r.Start {
		return ^uint64(0)
	}
	return r.Start + r.Len
}

func (r BlockRange) String() string {
	return fmt.Sprintf("%d+%d", r.Start, r.Len)
}
