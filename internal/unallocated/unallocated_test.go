package unallocated

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fsrip/internal/allocation"
	"github.com/deploymenttheory/go-fsrip/internal/types"
)

func testFilesystem(offset, blockSize, numBlocks uint64) *types.Filesystem {
	fs := &types.Filesystem{
		ByteOffset: offset,
		BlockSize:  blockSize,
		NumBlocks:  numBlocks,
		FirstBlock: 0,
		LastBlock:  numBlocks - 1,
		HasRuns:    true,
	}
	fs.Bounds = fs.DefaultBounds()
	return fs
}

func claim(l *allocation.Layout, fs *types.Filesystem, start, end uint64) {
	l.Mark(types.ByteRange{Begin: fs.BlockToByte(start), End: fs.BlockToByte(end)}, allocation.AttrRunInfo{Inode: 1})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"none", ModeNone, false},
		{"", ModeNone, false},
		{"Fragment", ModeFragment, false},
		{"block", ModeBlock, false},
		{"blocks", ModeNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "fragment", ModeFragment.String())
}

func TestFragmentCapping(t *testing.T) {
	fs := testFilesystem(0, 4096, 25)
	layout := allocation.NewLayout(0, fs.BlockSize, fs.Bounds)

	got := NewReconstructor(ModeFragment, 10).Fragments(fs, layout)
	assert.Equal(t, []types.BlockRange{
		{Start: 0, Len: 10},
		{Start: 10, Len: 10},
		{Start: 20, Len: 5},
	}, got)
}

func TestFragmentUnboundedByDefault(t *testing.T) {
	fs := testFilesystem(1<<20, 512, 100)
	layout := allocation.NewLayout(0, fs.BlockSize, fs.Bounds)
	claim(layout, fs, 2, 5)
	claim(layout, fs, 5, 8)
	claim(layout, fs, 10, 12)

	got := NewReconstructor(ModeFragment, 0).Fragments(fs, layout)
	assert.Equal(t, []types.BlockRange{
		{Start: 0, Len: 2},
		{Start: 8, Len: 2},
		{Start: 12, Len: 88},
	}, got)
}

func TestBlockModeCardinality(t *testing.T) {
	fs := testFilesystem(0, 1024, 30)
	layout := allocation.NewLayout(0, fs.BlockSize, fs.Bounds)
	claim(layout, fs, 0, 10)
	claim(layout, fs, 17, 30)

	got := NewReconstructor(ModeBlock, 3).Fragments(fs, layout)
	require.Len(t, got, 7)
	for i, br := range got {
		assert.Equal(t, uint64(10+i), br.Start)
		assert.Equal(t, uint64(1), br.Len)
	}
}

func TestNoneModeEmitsNothing(t *testing.T) {
	fs := testFilesystem(0, 512, 10)
	layout := allocation.NewLayout(0, fs.BlockSize, fs.Bounds)
	assert.Empty(t, NewReconstructor(ModeNone, 0).Fragments(fs, layout))
}

func TestPartialBlocksAreDropped(t *testing.T) {
	fs := testFilesystem(0, 512, 10)
	layout := allocation.NewLayout(0, fs.BlockSize, fs.Bounds)
	layout.Mark(types.ByteRange{Begin: 0, End: 700}, allocation.AttrRunInfo{Inode: 2})
	layout.Mark(types.ByteRange{Begin: 1100, End: 5120}, allocation.AttrRunInfo{Inode: 3})

	// gap [700, 1100) holds no whole block
	assert.Empty(t, UnallocatedBlocks(fs, layout))
}

func TestLastBlockAtMaximumDoesNotOverflow(t *testing.T) {
	fs := &types.Filesystem{BlockSize: 4096, FirstBlock: 0, LastBlock: math.MaxUint64, HasRuns: true}
	fs.Bounds = fs.DefaultBounds()
	layout := allocation.NewLayout(0, fs.BlockSize, fs.Bounds)
	claim(layout, fs, 0, 10)

	var ranges []types.BlockRange
	err := NewReconstructor(ModeFragment, 1<<40).Each(fs, layout, func(br types.BlockRange) error {
		ranges = append(ranges, br)
		if len(ranges) == 3 {
			return errors.New("stop")
		}
		return nil
	})
	require.EqualError(t, err, "stop")
	assert.Equal(t, uint64(10), ranges[0].Start)
	assert.Equal(t, ranges[0].End(), ranges[1].Start)
	assert.Equal(t, uint64(1<<40), ranges[1].Len)
}

func TestMakeUnallocatedRun(t *testing.T) {
	run, ok := MakeUnallocatedRun(20, 30)
	require.True(t, ok)
	assert.Equal(t, types.Run{Addr: 20, Len: 10, Offset: 0}, run)

	_, ok = MakeUnallocatedRun(30, 30)
	assert.False(t, ok)
}

func TestSyntheticEntries(t *testing.T) {
	fs := testFilesystem(0, 4096, 12345)

	frag := NewSyntheticEntryBuilder(fs, ModeFragment)
	assert.Equal(t, 5, frag.Width())
	assert.Equal(t, "00020-00010", frag.Name(types.BlockRange{Start: 20, Len: 10}))

	block := NewSyntheticEntryBuilder(fs, ModeBlock)
	assert.Equal(t, "00020", block.Name(types.BlockRange{Start: 20, Len: 1}))

	dir := frag.Directory()
	assert.True(t, dir.IsDirectory())
	assert.True(t, dir.Synthetic)
	assert.Equal(t, DirName, dir.DisplayName())

	a := frag.Fragment(types.BlockRange{Start: 20, Len: 10})
	b := frag.Fragment(types.BlockRange{Start: 40, Len: 2})
	assert.NotSame(t, a.Meta, b.Meta)
	assert.Equal(t, DirPath, a.Path)
	assert.Equal(t, types.MetaTypeVirtual, a.Meta.Type)
	assert.Equal(t, int64(10*4096), a.Meta.Size)
	require.Len(t, a.Attrs, 1)
	assert.True(t, a.Attrs[0].IsNonResident())
	assert.Equal(t, []types.Run{{Addr: 20, Len: 10}}, a.Attrs[0].Runs)
	assert.Equal(t, []types.Run{{Addr: 40, Len: 2}}, b.Attrs[0].Runs)
}
