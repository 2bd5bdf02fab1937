package allocation

import (
	"github.com/tidwall/btree"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// SectorSize is the unit used for the start/end sector of a layout
const SectorSize = 512

type segment struct {
	begin  uint64
	end    uint64
	owners Owners
}

func lessSegment(a, b *segment) bool {
	return a.begin < b.begin
}

// Fragment is one maximal byte range sharing a single owner set
type Fragment struct {
	Range  types.ByteRange
	Owners Owners
}

// Layout is the allocation state of one filesystem: disjoint claimed ranges,
// each mapped to the set of attributes claiming it
type Layout struct {
	Index     int
	BlockSize uint64
	Bounds    types.ByteRange

	segments *btree.BTreeG[*segment]
}

// NewLayout creates an empty layout for the valid byte range bounds
func NewLayout(index int, blockSize uint64, bounds types.ByteRange) *Layout {
	return &Layout{
		Index:     index,
		BlockSize: blockSize,
		Bounds:    bounds,
		segments:  btree.NewBTreeG(lessSegment),
	}
}

// StartSector returns the first sector of the valid range
func (l *Layout) StartSector() uint64 {
	return l.Bounds.Begin / SectorSize
}

// EndSector returns the sector holding the last valid byte
func (l *Layout) EndSector() uint64 {
	if l.Bounds.Empty() {
		return l.StartSector()
	}
	return (l.Bounds.End - 1) / SectorSize
}

// Len returns the number of fragments
func (l *Layout) Len() int {
	return l.segments.Len()
}

// Mark clamps r to the layout bounds and adds owner to every byte of it.
// It returns false when nothing remained after clamping.
func (l *Layout) Mark(r types.ByteRange, owner AttrRunInfo) bool {
	r = r.Clamp(l.Bounds)
	if r.Empty() {
		return false
	}

	overlapping := l.overlapping(r)
	for _, seg := range overlapping {
		l.segments.Delete(seg)
	}

	var pieces []*segment
	cur := r.Begin
	for _, seg := range overlapping {
		if seg.begin < r.Begin {
			pieces = append(pieces, &segment{begin: seg.begin, end: r.Begin, owners: seg.owners})
		}
		if seg.begin > cur {
			pieces = append(pieces, &segment{begin: cur, end: seg.begin, owners: Owners{owner}})
		}
		lo, hi := max(seg.begin, r.Begin), min(seg.end, r.End)
		pieces = append(pieces, &segment{begin: lo, end: hi, owners: seg.owners.With(owner)})
		if seg.end > r.End {
			pieces = append(pieces, &segment{begin: r.End, end: seg.end, owners: seg.owners})
		}
		cur = hi
	}
	if cur < r.End {
		pieces = append(pieces, &segment{begin: cur, end: r.End, owners: Owners{owner}})
	}

	pieces = l.joinNeighbours(pieces)
	for _, p := range pieces {
		l.segments.Set(p)
	}
	return true
}

// overlapping returns the stored segments intersecting r, in order
func (l *Layout) overlapping(r types.ByteRange) []*segment {
	var found []*segment
	l.segments.Descend(&segment{begin: r.Begin}, func(seg *segment) bool {
		if seg.begin < r.Begin && seg.end > r.Begin {
			found = append(found, seg)
		}
		return false
	})
	l.segments.Ascend(&segment{begin: r.Begin}, func(seg *segment) bool {
		if seg.begin >= r.End {
			return false
		}
		found = append(found, seg)
		return true
	})
	return found
}

// joinNeighbours coalesces touching pieces with equal owners, pulling in the
// stored segments directly left and right of the new pieces when they match
func (l *Layout) joinNeighbours(pieces []*segment) []*segment {
	first, last := pieces[0], pieces[len(pieces)-1]

	var left *segment
	l.segments.Descend(&segment{begin: first.begin}, func(seg *segment) bool {
		left = seg
		return false
	})
	if left != nil && left.end == first.begin && left.owners.Equal(first.owners) {
		l.segments.Delete(left)
		pieces = append([]*segment{left}, pieces...)
	}

	if right, ok := l.segments.Get(&segment{begin: last.end}); ok && right.owners.Equal(last.owners) {
		l.segments.Delete(right)
		pieces = append(pieces, right)
	}

	joined := pieces[:1]
	for _, p := range pieces[1:] {
		prev := joined[len(joined)-1]
		if prev.end == p.begin && prev.owners.Equal(p.owners) {
			joined[len(joined)-1] = &segment{begin: prev.begin, end: p.end, owners: prev.owners}
			continue
		}
		joined = append(joined, p)
	}
	return joined
}

// Ascend calls fn for every fragment in ascending offset order until fn returns false
func (l *Layout) Ascend(fn func(Fragment) bool) {
	l.segments.Scan(func(seg *segment) bool {
		return fn(Fragment{Range: types.ByteRange{Begin: seg.begin, End: seg.end}, Owners: seg.owners})
	})
}

// Fragments returns every fragment in ascending offset order
func (l *Layout) Fragments() []Fragment {
	out := make([]Fragment, 0, l.segments.Len())
	l.Ascend(func(f Fragment) bool {
		out = append(out, f)
		return true
	})
	return out
}

// ownersAt returns the owners of the byte at offset, or nil when unclaimed
func (l *Layout) ownersAt(offset uint64) Owners {
	var owners Owners
	l.segments.Descend(&segment{begin: offset}, func(seg *segment) bool {
		if offset < seg.end {
			owners = seg.owners
		}
		return false
	})
	return owners
}

// ComplementWithin returns the maximal unclaimed ranges inside r, ascending
func (l *Layout) ComplementWithin(r types.ByteRange) []types.ByteRange {
	var gaps []types.ByteRange
	cur := r.Begin
	l.segments.Scan(func(seg *segment) bool {
		if seg.begin >= r.End {
			return false
		}
		if seg.end <= cur {
			return true
		}
		if seg.begin > cur {
			gaps = append(gaps, types.ByteRange{Begin: cur, End: seg.begin})
		}
		cur = seg.end
		return cur < r.End
	})
	if cur < r.End {
		gaps = append(gaps, types.ByteRange{Begin: cur, End: r.End})
	}
	return gaps
}

// Complement returns the unclaimed ranges of the whole layout
func (l *Layout) Complement() []types.ByteRange {
	return l.ComplementWithin(l.Bounds)
}
