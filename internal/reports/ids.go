// Package reports writes the post-walk disk map and inode map files
package reports

import (
	"fmt"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// MakeInodeID returns the hex record ID of an inode: INODE tag, 8 hex digits
// of volume index, 16 hex digits of inode number
func MakeInodeID(volIndex uint32, inode uint64) string {
	return fmt.Sprintf("%02x%08x%016x", byte(types.RecordTypeInode), volIndex, inode)
}

// MakeDiskMapID returns the hex record ID of an allocated fragment: DISK_MAP
// tag followed by 16 hex digits of the absolute byte offset
func MakeDiskMapID(offset uint64) string {
	return fmt.Sprintf("%02x%016x", byte(types.RecordTypeDiskMap), offset)
}
