package types

// ImageInfo describes an opened image: its segments, partitions and filesystems
type ImageInfo struct {
	Files        []string          `json:"files" yaml:"files"`
	Description  string            `json:"description" yaml:"description"`
	Size         uint64            `json:"size" yaml:"size"`
	SectorSize   uint64            `json:"sectorSize" yaml:"sectorSize"`
	VolumeSystem *VolumeSystemInfo `json:"volumeSystem,omitempty" yaml:"volumeSystem,omitempty"`
	// Filesystem is set when the image holds a filesystem without a partition table
	Filesystem *FilesystemInfo `json:"filesystem,omitempty" yaml:"filesystem,omitempty"`
}

// VolumeSystemInfo describes a partition table
type VolumeSystemInfo struct {
	Type        string       `json:"type" yaml:"type"`
	Description string       `json:"description" yaml:"description"`
	BlockSize   uint64       `json:"blockSize" yaml:"blockSize"`
	NumVolumes  int          `json:"numVolumes" yaml:"numVolumes"`
	Offset      uint64       `json:"offset" yaml:"offset"`
	Volumes     []VolumeInfo `json:"volumes,omitempty" yaml:"volumes,omitempty"`
}

// VolumeInfo describes one partition
type VolumeInfo struct {
	Index       int             `json:"index" yaml:"index"`
	Description string          `json:"description" yaml:"description"`
	Flags       string          `json:"flags" yaml:"flags"`
	StartBlock  uint64          `json:"startBlock" yaml:"startBlock"`
	NumBlocks   uint64          `json:"numBlocks" yaml:"numBlocks"`
	SlotNum     int             `json:"slotNum" yaml:"slotNum"`
	TableNum    int             `json:"tableNum" yaml:"tableNum"`
	Filesystem  *FilesystemInfo `json:"filesystem,omitempty" yaml:"filesystem,omitempty"`
}

// FilesystemInfo is the descriptive summary of a filesystem
type FilesystemInfo struct {
	TypeName   string `json:"typeName" yaml:"typeName"`
	ByteOffset uint64 `json:"byteOffset" yaml:"byteOffset"`
	BlockSize  uint64 `json:"blockSize" yaml:"blockSize"`
	NumBlocks  uint64 `json:"numBlocks" yaml:"numBlocks"`
	FirstBlock uint64 `json:"firstBlock" yaml:"firstBlock"`
	LastBlock  uint64 `json:"lastBlock" yaml:"lastBlock"`
	FsID       string `json:"fsID" yaml:"fsID"`
	RootInum   uint64 `json:"rootInum" yaml:"rootInum"`
	FirstInum  uint64 `json:"firstInum" yaml:"firstInum"`
	LastInum   uint64 `json:"lastInum" yaml:"lastInum"`
	NumInums   uint64 `json:"numInums" yaml:"numInums"`
}

// CountFilesystems returns how many filesystems the image description holds
func (i *ImageInfo) CountFilesystems() int {
	n := 0
	if i.Filesystem != nil {
		n++
	}
	if i.VolumeSystem != nil {
		for _, v := range i.VolumeSystem.Volumes {
			if v.Filesystem != nil {
				n++
			}
		}
	}
	return n
}
