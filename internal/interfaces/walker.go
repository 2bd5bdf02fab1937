// File: internal/interfaces/walker.go
package interfaces

import (
	"context"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// ImageWalker opens an image and drives a depth-first walk over its
// volumes, filesystems and directory entries
type ImageWalker interface {
	// Describe returns the image layout without walking any directory
	Describe() (*types.ImageInfo, error)

	// Walk visits every filesystem in volume order. For each one it calls
	// EnterFilesystem, ProcessFile once per entry in pre-order and
	// StartUnallocated, then FinishWalk once at the end. Entries must be
	// delivered one at a time.
	Walk(ctx context.Context, visitor Visitor) error

	// Close releases the image
	Close() error
}

// Visitor receives walk callbacks
type Visitor interface {
	// EnterFilesystem announces the filesystem the following entries belong to
	EnterFilesystem(fs *types.Filesystem) error

	// ProcessFile handles one directory entry
	ProcessFile(entry *types.Entry) error

	// StartUnallocated signals that every real entry of the current
	// filesystem has been delivered
	StartUnallocated() error

	// FinishWalk is called once after the last filesystem
	FinishWalk() error
}
