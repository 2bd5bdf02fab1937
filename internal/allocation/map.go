package allocation

import (
	"sort"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// Map holds one Layout per filesystem, keyed by volume index.
// It is filled by a single walker goroutine and read-only afterwards.
type Map struct {
	layouts map[int]*Layout
}

// NewMap creates an empty allocation map
func NewMap() *Map {
	return &Map{layouts: make(map[int]*Layout)}
}

// AddFilesystem returns the layout for index, creating it on first encounter
func (m *Map) AddFilesystem(index int, blockSize uint64, bounds types.ByteRange) *Layout {
	if l, ok := m.layouts[index]; ok {
		return l
	}
	l := NewLayout(index, blockSize, bounds)
	m.layouts[index] = l
	return l
}

// Layout returns the layout registered for index
func (m *Map) Layout(index int) (*Layout, bool) {
	l, ok := m.layouts[index]
	return l, ok
}

// MarkRun claims [byteStart, byteEnd) of filesystem index for one attribute run.
// Ranges outside the filesystem bounds are clamped; it returns false when
// nothing was left to mark or the filesystem is unknown.
func (m *Map) MarkRun(index int, byteStart, byteEnd, fileOffset, inode uint64, attrID uint16, isSlack bool) bool {
	l, ok := m.layouts[index]
	if !ok {
		return false
	}
	return l.Mark(types.ByteRange{Begin: byteStart, End: byteEnd}, AttrRunInfo{
		Inode:      inode,
		AttrID:     attrID,
		Slack:      isSlack,
		RunStart:   byteStart,
		FileOffset: fileOffset,
	})
}

// Complement returns the unallocated byte ranges of filesystem index
func (m *Map) Complement(index int) []types.ByteRange {
	l, ok := m.layouts[index]
	if !ok {
		return nil
	}
	return l.Complement()
}

// Indices returns the registered volume indices in ascending order
func (m *Map) Indices() []int {
	out := make([]int, 0, len(m.layouts))
	for idx := range m.layouts {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
