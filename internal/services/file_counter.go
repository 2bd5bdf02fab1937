package services

import (
	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// FilesystemCount is the number of entries seen in one filesystem
type FilesystemCount struct {
	VolumeIndex int    `json:"volIndex" yaml:"volIndex"`
	VolumeName  string `json:"partName" yaml:"partName"`
	TypeName    string `json:"typeName" yaml:"typeName"`
	Entries     uint64 `json:"entries" yaml:"entries"`
	// StartSector and EndSector are filled by the metadata writer
	StartSector uint64 `json:"startSector,omitempty" yaml:"startSector,omitempty"`
	EndSector   uint64 `json:"endSector,omitempty" yaml:"endSector,omitempty"`
}

// FileCounter is a visitor that only counts entries
type FileCounter struct {
	NumFiles    uint64
	filesystems []FilesystemCount
}

// NewFileCounter creates a zeroed counter
func NewFileCounter() *FileCounter {
	return &FileCounter{}
}

// EnterFilesystem starts a new per-filesystem count
func (c *FileCounter) EnterFilesystem(fs *types.Filesystem) error {
	c.filesystems = append(c.filesystems, FilesystemCount{
		VolumeIndex: fs.VolumeIndex,
		VolumeName:  fs.VolumeName,
		TypeName:    fs.TypeName,
	})
	return nil
}

// ProcessFile counts one entry
func (c *FileCounter) ProcessFile(_ *types.Entry) error {
	c.NumFiles++
	if n := len(c.filesystems); n > 0 {
		c.filesystems[n-1].Entries++
	}
	return nil
}

// StartUnallocated does nothing for a counter
func (c *FileCounter) StartUnallocated() error { return nil }

// FinishWalk does nothing for a counter
func (c *FileCounter) FinishWalk() error { return nil }

// Filesystems returns the per-filesystem counts in walk order
func (c *FileCounter) Filesystems() []FilesystemCount {
	return append([]FilesystemCount(nil), c.filesystems...)
}
