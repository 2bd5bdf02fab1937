package disk

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"

	diskfs "github.com/diskfs/go-diskfs"
	diskfsdisk "github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/rs/zerolog"

	"github.com/deploymenttheory/go-fsrip/internal/interfaces"
	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// DiskfsWalker walks raw images through go-diskfs. It reports paths,
// sizes, times and modes; go-diskfs exposes no inode numbers or data runs,
// so entries get walk-order pseudo inode numbers and filesystems are
// flagged as having no runs.
type DiskfsWalker struct {
	path string
	disk *diskfsdisk.Disk
	log  zerolog.Logger
}

var _ interfaces.ImageWalker = (*DiskfsWalker)(nil)

// OpenDiskfs opens a raw image read-only
func OpenDiskfs(imagePath string, logger zerolog.Logger) (*DiskfsWalker, error) {
	d, err := diskfs.Open(imagePath, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", imagePath, err)
	}
	return &DiskfsWalker{path: imagePath, disk: d, log: logger}, nil
}

// Close releases the image file
func (w *DiskfsWalker) Close() error {
	if w.disk == nil || w.disk.File == nil {
		return nil
	}
	return w.disk.Close()
}

// volume is one partition, or the whole disk when there is no table
type volume struct {
	index       int // go-diskfs partition number, 0 for the whole disk
	description string
	start       uint64
	size        uint64
}

func (w *DiskfsWalker) sectorSize() uint64 {
	if w.disk.LogicalBlocksize > 0 {
		return uint64(w.disk.LogicalBlocksize)
	}
	return 512
}

// volumes lists the partitions in table order. A disk without a table, or
// whose table has no used slots (a FAT boot sector reads as an empty MBR),
// is one whole-disk volume.
func (w *DiskfsWalker) volumes() (string, []volume) {
	whole := []volume{{index: 0, description: "whole disk", size: uint64(w.disk.Size)}}
	table, err := w.disk.GetPartitionTable()
	if err != nil || table == nil {
		return "", whole
	}
	var vols []volume
	for i, p := range table.GetPartitions() {
		if p == nil || p.GetSize() <= 0 {
			continue
		}
		vols = append(vols, volume{
			index:       i + 1,
			description: fmt.Sprintf("partition %d", i+1),
			start:       uint64(p.GetStart()),
			size:        uint64(p.GetSize()),
		})
	}
	if len(vols) == 0 {
		return "", whole
	}
	return table.Type(), vols
}

func filesystemTypeName(t filesystem.Type) string {
	switch t {
	case filesystem.TypeFat32:
		return "fat32"
	case filesystem.TypeISO9660:
		return "iso9660"
	case filesystem.TypeSquashfs:
		return "squashfs"
	case filesystem.TypeExt4:
		return "ext4"
	default:
		return "unknown"
	}
}

func (w *DiskfsWalker) newFilesystem(vol volume, index int, typeName string, synthetic bool) *types.Filesystem {
	bs := w.sectorSize()
	fs := &types.Filesystem{
		VolumeIndex: index,
		VolumeName:  vol.description,
		TypeName:    typeName,
		ByteOffset:  vol.start,
		BlockSize:   bs,
		NumBlocks:   vol.size / bs,
		Synthetic:   synthetic,
		// a bare volume has nothing that could claim space, so it is all unallocated
		HasRuns: synthetic,
	}
	if fs.NumBlocks > 0 {
		fs.LastBlock = fs.NumBlocks - 1
	}
	fs.Bounds = fs.DefaultBounds()
	return fs
}

// Walk visits every partition. Partitions go-diskfs cannot mount are
// reported as bare volumes.
func (w *DiskfsWalker) Walk(ctx context.Context, visitor interfaces.Visitor) error {
	_, vols := w.volumes()
	for i, vol := range vols {
		if err := ctx.Err(); err != nil {
			return err
		}

		fsys, err := w.disk.GetFilesystem(vol.index)
		if err != nil {
			w.log.Debug().Err(err).Int("partition", vol.index).Msg("no filesystem recognised")
			fs := w.newFilesystem(vol, i, "volume", true)
			if err := visitor.EnterFilesystem(fs); err != nil {
				return fmt.Errorf("entering volume %d: %w", i, err)
			}
			if err := visitor.StartUnallocated(); err != nil {
				return fmt.Errorf("unallocated space of volume %d: %w", i, err)
			}
			continue
		}

		fs := w.newFilesystem(vol, i, filesystemTypeName(fsys.Type()), false)
		if err := visitor.EnterFilesystem(fs); err != nil {
			return fmt.Errorf("entering volume %d: %w", i, err)
		}
		var inode uint64
		if err := w.walkDir(ctx, fsys, "/", "", &inode, visitor); err != nil {
			return fmt.Errorf("walking volume %d: %w", i, err)
		}
		if err := visitor.StartUnallocated(); err != nil {
			return fmt.Errorf("unallocated space of volume %d: %w", i, err)
		}
	}
	return visitor.FinishWalk()
}

// walkDir delivers the entries of dir in name order, each directory
// followed by its subtree. walkPath is the TSK style path of the children.
func (w *DiskfsWalker) walkDir(ctx context.Context, fsys filesystem.FileSystem, dir, walkPath string, inode *uint64, visitor interfaces.Visitor) error {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	for _, info := range infos {
		name := info.Name()
		if name == "." || name == ".." || name == "" {
			continue
		}
		*inode++
		if err := visitor.ProcessFile(entryFromFileInfo(info, walkPath, *inode)); err != nil {
			return err
		}
		if info.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			display := decodeName(name)
			if err := w.walkDir(ctx, fsys, path.Join(dir, name), walkPath+display+"/", inode, visitor); err != nil {
				return err
			}
		}
	}
	return nil
}

func entryFromFileInfo(info os.FileInfo, walkPath string, inode uint64) *types.Entry {
	nameType, metaType := types.NameTypeRegular, types.MetaTypeRegular
	switch mode := info.Mode(); {
	case info.IsDir():
		nameType, metaType = types.NameTypeDirectory, types.MetaTypeDirectory
	case mode&os.ModeSymlink != 0:
		nameType, metaType = types.NameTypeSymlink, types.MetaTypeSymlink
	case mode&os.ModeNamedPipe != 0:
		nameType, metaType = types.NameTypeFIFO, types.MetaTypeFIFO
	case mode&os.ModeSocket != 0:
		nameType, metaType = types.NameTypeSocket, types.MetaTypeSocket
	case mode&os.ModeCharDevice != 0:
		nameType, metaType = types.NameTypeCharDevice, types.MetaTypeCharDevice
	case mode&os.ModeDevice != 0:
		nameType, metaType = types.NameTypeBlockDevice, types.MetaTypeBlockDevice
	}

	mtime := types.FromTime(info.ModTime())
	size := info.Size()
	return &types.Entry{
		Path: walkPath,
		Name: &types.Name{
			Flags:    types.NameFlagAlloc,
			MetaAddr: inode,
			Name:     decodeName(info.Name()),
			Type:     nameType,
		},
		Meta: &types.Meta{
			Addr:       inode,
			Flags:      types.MetaFlagAlloc | types.MetaFlagUsed,
			Type:       metaType,
			Mode:       uint32(info.Mode().Perm()),
			Nlink:      1,
			Size:       size,
			ContentLen: uint64(max(size, 0)),
			Mtime:      mtime,
			Atime:      mtime,
			Ctime:      mtime,
			Crtime:     mtime,
		},
	}
}

// Describe reports the partition table and the recognised filesystems
func (w *DiskfsWalker) Describe() (*types.ImageInfo, error) {
	info := &types.ImageInfo{
		Files:      []string{w.path},
		Size:       uint64(w.disk.Size),
		SectorSize: w.sectorSize(),
	}
	tableType, vols := w.volumes()

	describe := func(vol volume) *types.FilesystemInfo {
		fsys, err := w.disk.GetFilesystem(vol.index)
		if err != nil {
			return nil
		}
		fs := w.newFilesystem(vol, 0, filesystemTypeName(fsys.Type()), false)
		return &types.FilesystemInfo{
			TypeName:   fs.TypeName,
			ByteOffset: fs.ByteOffset,
			BlockSize:  fs.BlockSize,
			NumBlocks:  fs.NumBlocks,
			FirstBlock: fs.FirstBlock,
			LastBlock:  fs.LastBlock,
		}
	}

	if tableType == "" {
		info.Description = "raw filesystem image"
		if len(vols) > 0 {
			info.Filesystem = describe(vols[0])
		}
		return info, nil
	}

	info.Description = tableType + " partitioned image"
	vs := &types.VolumeSystemInfo{
		Type:       tableType,
		BlockSize:  w.sectorSize(),
		NumVolumes: len(vols),
	}
	for i, vol := range vols {
		vs.Volumes = append(vs.Volumes, types.VolumeInfo{
			Index:       i,
			Description: vol.description,
			Flags:       "allocated",
			StartBlock:  vol.start / w.sectorSize(),
			NumBlocks:   vol.size / w.sectorSize(),
			SlotNum:     vol.index,
			Filesystem:  describe(vol),
		})
	}
	info.VolumeSystem = vs
	return info, nil
}
