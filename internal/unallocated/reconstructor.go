package unallocated

import (
	"github.com/deploymenttheory/go-fsrip/internal/allocation"
	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// Reconstructor turns the unclaimed space of a filesystem into block ranges
type Reconstructor struct {
	Mode Mode
	// MaxBlocks caps the length of a fragment in ModeFragment; 0 means unbounded
	MaxBlocks uint64
}

// NewReconstructor creates a reconstructor for the given mode and fragment cap
func NewReconstructor(mode Mode, maxBlocks uint64) *Reconstructor {
	return &Reconstructor{Mode: mode, MaxBlocks: maxBlocks}
}

// Each calls fn for every synthetic fragment of fs in ascending block order.
// Ranges are in filesystem block units and lie within [FirstBlock, LastBlock].
// Iteration stops at the first error returned by fn.
func (r *Reconstructor) Each(fs *types.Filesystem, layout *allocation.Layout, fn func(types.BlockRange) error) error {
	if r.Mode == ModeNone || fs.BlockSize == 0 || layout == nil {
		return nil
	}
	for _, gap := range UnallocatedBlocks(fs, layout) {
		if err := r.split(gap, fn); err != nil {
			return err
		}
	}
	return nil
}

// Fragments collects the output of Each
func (r *Reconstructor) Fragments(fs *types.Filesystem, layout *allocation.Layout) []types.BlockRange {
	var out []types.BlockRange
	_ = r.Each(fs, layout, func(br types.BlockRange) error {
		out = append(out, br)
		return nil
	})
	return out
}

func (r *Reconstructor) split(gap types.BlockRange, fn func(types.BlockRange) error) error {
	step := gap.Len
	switch r.Mode {
	case ModeBlock:
		step = 1
	case ModeFragment:
		if r.MaxBlocks > 0 && r.MaxBlocks < step {
			step = r.MaxBlocks
		}
	}

	start, remaining := gap.Start, gap.Len
	for remaining > 0 {
		n := min(step, remaining)
		if err := fn(types.BlockRange{Start: start, Len: n}); err != nil {
			return err
		}
		remaining -= n
		if remaining > 0 {
			start += n
		}
	}
	return nil
}

// UnallocatedBlocks converts the layout complement into whole-block ranges
// relative to fs. Partial blocks at either end of a gap are dropped and the
// result is bounded to [FirstBlock, LastBlock].
func UnallocatedBlocks(fs *types.Filesystem, layout *allocation.Layout) []types.BlockRange {
	if fs.BlockSize == 0 || fs.LastBlock < fs.FirstBlock {
		return nil
	}
	var out []types.BlockRange
	for _, gap := range layout.Complement() {
		if gap.Empty() || gap.End <= fs.ByteOffset {
			continue
		}
		begin := max(gap.Begin, fs.ByteOffset) - fs.ByteOffset
		end := gap.End - fs.ByteOffset

		first := begin / fs.BlockSize
		if begin%fs.BlockSize != 0 {
			first++
		}
		endBlock := end / fs.BlockSize // exclusive
		if endBlock <= first {
			continue
		}
		last := min(endBlock-1, fs.LastBlock)
		first = max(first, fs.FirstBlock)
		if last < first {
			continue
		}
		out = append(out, types.BlockRange{Start: first, Len: last - first + 1})
	}
	return out
}

// MakeUnallocatedRun builds the data run of a synthetic entry spanning
// blocks [start, end)
func MakeUnallocatedRun(start, end uint64) (types.Run, bool) {
	if end <= start {
		return types.Run{}, false
	}
	return types.Run{Addr: start, Len: end - start, Offset: 0}, true
}
