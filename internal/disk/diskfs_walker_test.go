package disk

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	diskfs "github.com/diskfs/go-diskfs"
	diskfsdisk "github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fsrip/internal/services"
	"github.com/deploymenttheory/go-fsrip/internal/types"
	"github.com/deploymenttheory/go-fsrip/internal/unallocated"
)

const fatImageSize = 10 * 1024 * 1024

// newFatImage builds an unpartitioned FAT32 image holding A.TXT and
// DIR/B.TXT
func newFatImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fat.img")

	d, err := diskfs.Create(path, fatImageSize, diskfs.Raw, diskfs.SectorSizeDefault)
	require.NoError(t, err)
	fsys, err := d.CreateFilesystem(diskfsdisk.FilesystemSpec{Partition: 0, FSType: filesystem.TypeFat32})
	require.NoError(t, err)

	require.NoError(t, fsys.Mkdir("/DIR"))
	for name, content := range map[string]string{"/A.TXT": "hello", "/DIR/B.TXT": "nested file"} {
		f, err := fsys.OpenFile(name, os.O_CREATE|os.O_RDWR)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	require.NoError(t, d.Close())
	return path
}

type recordingVisitor struct {
	filesystems []*types.Filesystem
	entries     []*types.Entry
	unallocated int
	finished    int
}

func (r *recordingVisitor) EnterFilesystem(fs *types.Filesystem) error {
	r.filesystems = append(r.filesystems, fs)
	return nil
}

func (r *recordingVisitor) ProcessFile(entry *types.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingVisitor) StartUnallocated() error {
	r.unallocated++
	return nil
}

func (r *recordingVisitor) FinishWalk() error {
	r.finished++
	return nil
}

func TestDiskfsWalkerWalk(t *testing.T) {
	w, err := OpenDiskfs(newFatImage(t), zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	v := &recordingVisitor{}
	require.NoError(t, w.Walk(context.Background(), v))

	require.Len(t, v.filesystems, 1)
	fs := v.filesystems[0]
	assert.Equal(t, "fat32", fs.TypeName)
	assert.Equal(t, "whole disk", fs.VolumeName)
	assert.False(t, fs.HasRuns)
	assert.False(t, fs.Synthetic)
	assert.Equal(t, uint64(fatImageSize/512), fs.NumBlocks)
	assert.Equal(t, 1, v.unallocated)
	assert.Equal(t, 1, v.finished)

	// pre-order: each directory is followed by its subtree
	require.Len(t, v.entries, 3)
	want := []struct {
		path, name string
		inode      uint64
		dir        bool
	}{
		{"", "A.TXT", 1, false},
		{"", "DIR", 2, true},
		{"DIR/", "B.TXT", 3, false},
	}
	for i, tt := range want {
		e := v.entries[i]
		assert.Equal(t, tt.path, e.Path)
		assert.Equal(t, tt.name, e.Name.Name)
		assert.Equal(t, tt.inode, e.Meta.Addr)
		assert.Equal(t, tt.dir, e.IsDirectory())
	}
	assert.Equal(t, uint64(len("nested file")), v.entries[2].Meta.ContentLen)
}

func TestDiskfsWalkerSkipsSynthesisWithoutRuns(t *testing.T) {
	w, err := OpenDiskfs(newFatImage(t), zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	var out bytes.Buffer
	writer, err := services.NewMetadataWriter(&out, zerolog.Nop(), services.WriterOptions{Mode: unallocated.ModeBlock})
	require.NoError(t, err)
	require.NoError(t, w.Walk(context.Background(), writer))

	stats := writer.Stats()
	assert.Equal(t, uint64(3), stats.Entries)
	assert.Zero(t, stats.Synthetic)
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}

func TestDiskfsWalkerDescribe(t *testing.T) {
	path := newFatImage(t)
	w, err := OpenDiskfs(path, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	info, err := w.Describe()
	require.NoError(t, err)
	assert.Equal(t, "raw filesystem image", info.Description)
	assert.Equal(t, []string{path}, info.Files)
	assert.Equal(t, uint64(fatImageSize), info.Size)
	assert.Nil(t, info.VolumeSystem)
	require.NotNil(t, info.Filesystem)
	assert.Equal(t, "fat32", info.Filesystem.TypeName)
	assert.Equal(t, uint64(512), info.Filesystem.BlockSize)
	assert.Equal(t, uint64(fatImageSize/512-1), info.Filesystem.LastBlock)
}

func TestDiskfsWalkerCancelled(t *testing.T) {
	w, err := OpenDiskfs(newFatImage(t), zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Walk(ctx, &recordingVisitor{}), context.Canceled)
}
