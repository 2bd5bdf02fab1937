package descriptor

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-fsrip/internal/interfaces"
	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// Walker replays an image description through a visitor
type Walker struct {
	path  string
	image *Image
	log   zerolog.Logger
}

var _ interfaces.ImageWalker = (*Walker)(nil)

// Parse decodes a YAML or JSON description
func Parse(data []byte) (*Image, error) {
	var img Image
	if err := yaml.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("failed to parse image description: %w", err)
	}
	if img.VolumeSystem == nil && img.Filesystem == nil {
		return nil, fmt.Errorf("image description has neither a volume system nor a filesystem")
	}
	if img.SectorSize == 0 {
		img.SectorSize = 512
	}
	if img.VolumeSystem != nil && img.VolumeSystem.BlockSize == 0 {
		img.VolumeSystem.BlockSize = img.SectorSize
	}
	return &img, nil
}

// Open reads and parses the description at path
func Open(fs afero.Fs, path string) (*Walker, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image description: %w", err)
	}
	img, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewWalker(path, img), nil
}

// NewWalker wraps an already parsed description
func NewWalker(path string, img *Image) *Walker {
	return &Walker{path: path, image: img, log: zerolog.Nop()}
}

// WithLogger sets the logger that receives skipped entries
func (w *Walker) WithLogger(logger zerolog.Logger) *Walker {
	w.log = logger
	return w
}

// Close is a no-op; the description is held in memory
func (w *Walker) Close() error { return nil }

// target is one filesystem to walk, real or synthesized for a bare volume
type target struct {
	fs   *types.Filesystem
	tree *Filesystem
}

// targets resolves every filesystem of the image in volume order and assigns
// volume indices
func (w *Walker) targets() ([]target, error) {
	img := w.image
	var out []target

	if img.Filesystem != nil {
		fs, err := convertFilesystem(img.Filesystem, 0, "", 0)
		if err != nil {
			return nil, err
		}
		out = append(out, target{fs: fs, tree: img.Filesystem})
	}

	if vs := img.VolumeSystem; vs != nil {
		for i := range vs.Volumes {
			vol := &vs.Volumes[i]
			start := vs.Offset + vol.StartBlock*vs.BlockSize
			if vol.Filesystem != nil {
				fs, err := convertFilesystem(vol.Filesystem, len(out), vol.Description, start)
				if err != nil {
					return nil, fmt.Errorf("volume %d: %w", i, err)
				}
				out = append(out, target{fs: fs, tree: vol.Filesystem})
				continue
			}
			if vol.IsMeta() || vol.NumBlocks == 0 {
				continue
			}
			out = append(out, target{fs: volumeFilesystem(vol, len(out), vs.BlockSize, start)})
		}
	}
	return out, nil
}

func convertFilesystem(f *Filesystem, index int, volName string, volStart uint64) (*types.Filesystem, error) {
	if f.BlockSize == 0 {
		return nil, fmt.Errorf("filesystem %q has no block size", f.Type)
	}
	id, err := f.fsID()
	if err != nil {
		return nil, err
	}
	offset := volStart
	if f.ByteOffset != nil {
		offset = *f.ByteOffset
	}
	fs := &types.Filesystem{
		VolumeIndex: index,
		VolumeName:  volName,
		TypeName:    f.Type,
		ByteOffset:  offset,
		BlockSize:   f.BlockSize,
		NumBlocks:   f.NumBlocks,
		FirstBlock:  f.FirstBlock,
		LastBlock:   f.lastBlock(),
		FsID:        id,
		HasRuns:     f.Runs == nil || *f.Runs,
	}
	fs.Bounds = fs.DefaultBounds()
	return fs, nil
}

// volumeFilesystem stands in for a partition without a recognised
// filesystem so its space is still accounted for
func volumeFilesystem(vol *Volume, index int, blockSize, start uint64) *types.Filesystem {
	fs := &types.Filesystem{
		VolumeIndex: index,
		VolumeName:  vol.Description,
		TypeName:    "volume",
		ByteOffset:  start,
		BlockSize:   blockSize,
		NumBlocks:   vol.NumBlocks,
		LastBlock:   vol.NumBlocks - 1,
		Synthetic:   true,
		HasRuns:     true,
	}
	fs.Bounds = fs.DefaultBounds()
	return fs
}

// Walk visits every filesystem and its entries in pre-order
func (w *Walker) Walk(ctx context.Context, visitor interfaces.Visitor) error {
	targets, err := w.targets()
	if err != nil {
		return err
	}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := visitor.EnterFilesystem(t.fs); err != nil {
			return fmt.Errorf("entering volume %d: %w", t.fs.VolumeIndex, err)
		}
		if t.tree != nil {
			if err := w.walkNodes(t.tree.Entries, "", visitor); err != nil {
				return err
			}
		}
		if err := visitor.StartUnallocated(); err != nil {
			return fmt.Errorf("unallocated space of volume %d: %w", t.fs.VolumeIndex, err)
		}
	}
	return visitor.FinishWalk()
}

// walkNodes delivers nodes below path; a directory's subtree follows it
// directly, its children at path + name + "/". A node that cannot be
// converted is logged and skipped together with its subtree.
func (w *Walker) walkNodes(nodes []Node, path string, visitor interfaces.Visitor) error {
	for i := range nodes {
		n := &nodes[i]
		entry, err := n.toEntry(path)
		if err != nil {
			w.log.Warn().Err(err).Str("path", path+n.Name).Int("children", len(n.Children)).Msg("skipping invalid entry")
			continue
		}
		if err := visitor.ProcessFile(entry); err != nil {
			return err
		}
		if n.isDir() && len(n.Children) > 0 {
			if err := w.walkNodes(n.Children, path+n.Name+"/", visitor); err != nil {
				return err
			}
		}
	}
	return nil
}

// Describe summarises the image without walking directory trees
func (w *Walker) Describe() (*types.ImageInfo, error) {
	img := w.image
	info := &types.ImageInfo{
		Files:       []string{w.path},
		Description: img.Description,
		Size:        img.Size,
		SectorSize:  img.SectorSize,
	}
	if img.Filesystem != nil {
		fsInfo, err := describeFilesystem(img.Filesystem, 0)
		if err != nil {
			return nil, err
		}
		info.Filesystem = fsInfo
	}
	if vs := img.VolumeSystem; vs != nil {
		vsInfo := &types.VolumeSystemInfo{
			Type:        vs.Type,
			Description: vs.Description,
			BlockSize:   vs.BlockSize,
			NumVolumes:  len(vs.Volumes),
			Offset:      vs.Offset,
		}
		for i := range vs.Volumes {
			vol := &vs.Volumes[i]
			vi := types.VolumeInfo{
				Index:       i,
				Description: vol.Description,
				Flags:       vol.Flags,
				StartBlock:  vol.StartBlock,
				NumBlocks:   vol.NumBlocks,
				SlotNum:     vol.SlotNum,
				TableNum:    vol.TableNum,
			}
			if vol.Filesystem != nil {
				fsInfo, err := describeFilesystem(vol.Filesystem, vs.Offset+vol.StartBlock*vs.BlockSize)
				if err != nil {
					return nil, fmt.Errorf("volume %d: %w", i, err)
				}
				vi.Filesystem = fsInfo
			}
			vsInfo.Volumes = append(vsInfo.Volumes, vi)
		}
		info.VolumeSystem = vsInfo
	}
	return info, nil
}

func describeFilesystem(f *Filesystem, volStart uint64) (*types.FilesystemInfo, error) {
	fs, err := convertFilesystem(f, 0, "", volStart)
	if err != nil {
		return nil, err
	}
	return &types.FilesystemInfo{
		TypeName:   fs.TypeName,
		ByteOffset: fs.ByteOffset,
		BlockSize:  fs.BlockSize,
		NumBlocks:  fs.NumBlocks,
		FirstBlock: fs.FirstBlock,
		LastBlock:  fs.LastBlock,
		FsID:       hex.EncodeToString(fs.FsID),
		RootInum:   f.RootInum,
		FirstInum:  f.FirstInum,
		LastInum:   f.LastInum,
		NumInums:   f.NumInums,
	}, nil
}
