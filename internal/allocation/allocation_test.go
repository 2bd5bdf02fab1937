package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

const blockSize = 512

func blocks(begin, end uint64) types.ByteRange {
	return types.ByteRange{Begin: begin * blockSize, End: end * blockSize}
}

func newTestMap(numBlocks uint64) *Map {
	m := NewMap()
	m.AddFilesystem(0, blockSize, blocks(0, numBlocks))
	return m
}

func TestMarkRunIdempotent(t *testing.T) {
	once := newTestMap(100)
	twice := newTestMap(100)

	require.True(t, once.MarkRun(0, 10*blockSize, 20*blockSize, 0, 5, 1, false))
	require.True(t, twice.MarkRun(0, 10*blockSize, 20*blockSize, 0, 5, 1, false))
	require.True(t, twice.MarkRun(0, 10*blockSize, 20*blockSize, 0, 5, 1, false))

	l1, _ := once.Layout(0)
	l2, _ := twice.Layout(0)
	assert.Equal(t, l1.Fragments(), l2.Fragments())
	assert.Len(t, l2.Fragments(), 1)
}

func TestComplementMergesAdjacentRuns(t *testing.T) {
	const n = 20
	m := newTestMap(n)
	m.MarkRun(0, 2*blockSize, 5*blockSize, 0, 1, 0, false)
	m.MarkRun(0, 5*blockSize, 8*blockSize, 0, 2, 0, false)
	m.MarkRun(0, 10*blockSize, 12*blockSize, 0, 3, 0, false)

	assert.Equal(t, []types.ByteRange{blocks(0, 2), blocks(8, 10), blocks(12, n)}, m.Complement(0))
}

func TestComplementOfEmptyAndFullLayouts(t *testing.T) {
	m := newTestMap(8)
	assert.Equal(t, []types.ByteRange{blocks(0, 8)}, m.Complement(0))

	m.MarkRun(0, 0, 8*blockSize, 0, 1, 0, false)
	assert.Empty(t, m.Complement(0))
	assert.Nil(t, m.Complement(42))
}

func TestOverlappingRunsUnionOwners(t *testing.T) {
	m := newTestMap(100)
	m.MarkRun(0, 10*blockSize, 30*blockSize, 0, 7, 1, false)
	m.MarkRun(0, 20*blockSize, 40*blockSize, 0, 9, 2, false)

	l, _ := m.Layout(0)
	frags := l.Fragments()
	require.Len(t, frags, 3)

	assert.Equal(t, blocks(10, 20), frags[0].Range)
	assert.Equal(t, blocks(20, 30), frags[1].Range)
	assert.Equal(t, blocks(30, 40), frags[2].Range)

	require.Len(t, frags[1].Owners, 2)
	assert.Equal(t, uint64(7), frags[1].Owners[0].Inode)
	assert.Equal(t, uint64(9), frags[1].Owners[1].Inode)
	assert.Equal(t, uint64(7), l.ownersAt(15 * blockSize)[0].Inode)
	assert.Nil(t, l.ownersAt(50*blockSize))
}

func TestRunInsideExistingSegmentSplitsIt(t *testing.T) {
	m := newTestMap(100)
	m.MarkRun(0, 0, 100*blockSize, 0, 1, 0, false)
	m.MarkRun(0, 40*blockSize, 50*blockSize, 0, 2, 0, false)

	l, _ := m.Layout(0)
	frags := l.Fragments()
	require.Len(t, frags, 3)
	assert.Equal(t, blocks(0, 40), frags[0].Range)
	assert.Len(t, frags[0].Owners, 1)
	assert.Equal(t, blocks(40, 50), frags[1].Range)
	assert.Len(t, frags[1].Owners, 2)
	assert.Equal(t, blocks(50, 100), frags[2].Range)
	assert.Equal(t, frags[0].Owners, frags[2].Owners)
}

func TestOwnerOrderIndependentOfInsertion(t *testing.T) {
	a := newTestMap(10)
	b := newTestMap(10)

	runs := []AttrRunInfo{
		{Inode: 4, AttrID: 1, Slack: true},
		{Inode: 4, AttrID: 1, Slack: false},
		{Inode: 2, AttrID: 3},
		{Inode: 4, AttrID: 0},
	}
	for _, r := range runs {
		a.MarkRun(0, 0, blockSize, r.FileOffset, r.Inode, r.AttrID, r.Slack)
	}
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		b.MarkRun(0, 0, blockSize, r.FileOffset, r.Inode, r.AttrID, r.Slack)
	}

	la, _ := a.Layout(0)
	lb, _ := b.Layout(0)
	assert.Equal(t, la.Fragments(), lb.Fragments())

	owners := la.Fragments()[0].Owners
	require.Len(t, owners, 4)
	assert.Equal(t, uint64(2), owners[0].Inode)
	assert.Equal(t, uint16(0), owners[1].AttrID)
	assert.False(t, owners[2].Slack)
	assert.True(t, owners[3].Slack)
}

func TestMarkRunClampsToBounds(t *testing.T) {
	m := NewMap()
	m.AddFilesystem(3, blockSize, blocks(100, 200))

	assert.False(t, m.MarkRun(3, 0, 50*blockSize, 0, 1, 0, false))
	assert.True(t, m.MarkRun(3, 150*blockSize, 300*blockSize, 0, 1, 0, false))
	assert.False(t, m.MarkRun(9, 0, blockSize, 0, 1, 0, false))

	l, _ := m.Layout(3)
	assert.Equal(t, blocks(150, 200), l.Fragments()[0].Range)
	assert.Equal(t, uint64(100), l.StartSector())
	assert.Equal(t, uint64(199), l.EndSector())
}

func TestTouchingRunsWithSameOwnersJoin(t *testing.T) {
	l := NewLayout(0, blockSize, blocks(0, 100))
	owner := AttrRunInfo{Inode: 12, AttrID: 1, RunStart: 0}

	l.Mark(blocks(0, 10), owner)
	l.Mark(blocks(20, 30), owner)
	l.Mark(blocks(10, 20), owner)

	frags := l.Fragments()
	require.Len(t, frags, 1)
	assert.Equal(t, blocks(0, 30), frags[0].Range)
}

func TestIndicesSorted(t *testing.T) {
	m := NewMap()
	for _, idx := range []int{4, 1, 3} {
		m.AddFilesystem(idx, blockSize, blocks(0, 1))
	}
	assert.Equal(t, []int{1, 3, 4}, m.Indices())
}

func TestOwnersWith(t *testing.T) {
	var o Owners
	o = o.With(AttrRunInfo{Inode: 2})
	o = o.With(AttrRunInfo{Inode: 1})
	same := o.With(AttrRunInfo{Inode: 1})
	assert.Equal(t, o, same)
	assert.Equal(t, uint64(1), o[0].Inode)
	assert.True(t, o.Equal(Owners{{Inode: 1}, {Inode: 2}}))
}
