package reports

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-fsrip/internal/ids"
	"github.com/deploymenttheory/go-fsrip/internal/inodes"
)

// InodeMapRecord is one line of the inode map
type InodeMapRecord struct {
	ID   string        `json:"id"`
	Body InodeMapTypes `json:"t"`
}

// InodeMapTypes lists the entries referencing the inode
type InodeMapTypes struct {
	HardLinks []string `json:"hardlinks"`
}

// NewInodeMapRecord builds the record of one inode
func NewInodeMapRecord(key inodes.Key, refs []ids.EntryID) InodeMapRecord {
	links := make([]string, 0, len(refs))
	for _, ref := range refs {
		links = append(links, ref.RecordID())
	}
	return InodeMapRecord{
		ID:   MakeInodeID(uint32(key.FsIndex), key.Inode),
		Body: InodeMapTypes{HardLinks: links},
	}
}

// WriteInodeMap writes one JSON line per referenced inode, ordered by
// filesystem then inode. It returns the line count.
func WriteInodeMap(w io.Writer, x *inodes.Index) (int, error) {
	enc := json.NewEncoder(w)
	var (
		lines int
		err   error
	)
	x.Each(func(key inodes.Key, refs []ids.EntryID) bool {
		if err = enc.Encode(NewInodeMapRecord(key, refs)); err != nil {
			err = fmt.Errorf("writing inode map entry for volume %d inode %d: %w", key.FsIndex, key.Inode, err)
			return false
		}
		lines++
		return true
	})
	return lines, err
}
