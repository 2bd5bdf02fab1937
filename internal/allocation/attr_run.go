package allocation

import (
	"cmp"
	"fmt"
	"sort"
)

// AttrRunInfo records which inode attribute claims a byte range
type AttrRunInfo struct {
	Inode  uint64
	AttrID uint16
	// Slack is set for the part of a run past the attribute's logical end
	Slack bool
	// Absolute byte offset where the owning data run begins
	RunStart uint64
	// Offset of the range within the attribute's logical stream
	FileOffset uint64
}

// Compare orders by inode, attribute, non-slack before slack, run start, file offset
func (a AttrRunInfo) Compare(b AttrRunInfo) int {
	if c := cmp.Compare(a.Inode, b.Inode); c != 0 {
		return c
	}
	if c := cmp.Compare(a.AttrID, b.AttrID); c != 0 {
		return c
	}
	if a.Slack != b.Slack {
		if !a.Slack {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.RunStart, b.RunStart); c != 0 {
		return c
	}
	return cmp.Compare(a.FileOffset, b.FileOffset)
}

func (a AttrRunInfo) String() string {
	return fmt.Sprintf("inode %d attr %d slack=%t run@%d fo=%d", a.Inode, a.AttrID, a.Slack, a.RunStart, a.FileOffset)
}

// Owners is a sorted, duplicate free set of AttrRunInfo.
// Sets are shared between segments after a split and are never mutated in place.
type Owners []AttrRunInfo

// With returns the union of the set and one more owner
func (o Owners) With(info AttrRunInfo) Owners {
	i := sort.Search(len(o), func(i int) bool { return o[i].Compare(info) >= 0 })
	if i < len(o) && o[i] == info {
		return o
	}
	out := make(Owners, 0, len(o)+1)
	out = append(out, o[:i]...)
	out = append(out, info)
	return append(out, o[i:]...)
}

// Equal reports whether both sets hold the same owners
func (o Owners) Equal(other Owners) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}
