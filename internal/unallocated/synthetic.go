package unallocated

import (
	"fmt"
	"strconv"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// DirName is the virtual directory holding synthetic unallocated entries
const DirName = "$Unallocated"

// DirPath is the walker path of the synthetic entries
const DirPath = DirName + "/"

// SyntheticEntryBuilder creates the virtual entries standing in for
// unallocated space of one filesystem. Every call returns a new Entry.
type SyntheticEntryBuilder struct {
	fs    *types.Filesystem
	mode  Mode
	width int
}

// NewSyntheticEntryBuilder prepares a builder for fs. Names are zero-padded
// to the number of digits of the filesystem's last block.
func NewSyntheticEntryBuilder(fs *types.Filesystem, mode Mode) *SyntheticEntryBuilder {
	return &SyntheticEntryBuilder{
		fs:    fs,
		mode:  mode,
		width: len(strconv.FormatUint(fs.LastBlock, 10)),
	}
}

// Width returns the zero-padding width used in fragment names
func (b *SyntheticEntryBuilder) Width() int {
	return b.width
}

// Directory returns the $Unallocated directory entry, a child of the root
func (b *SyntheticEntryBuilder) Directory() *types.Entry {
	return &types.Entry{
		Path: "",
		Name: &types.Name{
			Name:  DirName,
			Type:  types.NameTypeDirectory,
			Flags: types.NameFlagUnalloc,
		},
		Meta: &types.Meta{
			Type:  types.MetaTypeDirectory,
			Flags: types.MetaFlagUnalloc | types.MetaFlagUnused,
		},
		Synthetic: true,
	}
}

// Name formats the entry name of a fragment: "start-length" in fragment
// mode, the block number alone in block mode
func (b *SyntheticEntryBuilder) Name(br types.BlockRange) string {
	if b.mode == ModeBlock {
		return fmt.Sprintf("%0*d", b.width, br.Start)
	}
	return fmt.Sprintf("%0*d-%0*d", b.width, br.Start, b.width, br.Len)
}

// Fragment returns the synthetic entry covering br. It carries a single
// non-resident attribute with one run over the fragment.
func (b *SyntheticEntryBuilder) Fragment(br types.BlockRange) *types.Entry {
	size := int64(br.Len * b.fs.BlockSize)
	entry := &types.Entry{
		Path: DirPath,
		Name: &types.Name{
			Name:  b.Name(br),
			Type:  types.NameTypeVirtual,
			Flags: types.NameFlagUnalloc,
		},
		Meta: &types.Meta{
			Type:       types.MetaTypeVirtual,
			Flags:      types.MetaFlagUnalloc | types.MetaFlagUnused,
			Size:       size,
			ContentLen: br.Len * b.fs.BlockSize,
		},
		Synthetic: true,
	}

	attr := types.Attribute{
		Type:      1,
		Flags:     types.AttrFlagInUse | types.AttrFlagNonRes,
		Size:      size,
		AllocSize: size,
		InitSize:  size,
	}
	if run, ok := MakeUnallocatedRun(br.Start, br.End()); ok {
		attr.Runs = []types.Run{run}
	}
	entry.Attrs = []types.Attribute{attr}
	return entry
}
