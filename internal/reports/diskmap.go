package reports

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-fsrip/internal/allocation"
)

// DiskMapRecord is one line of the disk map: an allocated fragment and every
// attribute run claiming it
type DiskMapRecord struct {
	ID   string       `json:"id"`
	Body DiskMapTypes `json:"t"`
}

// DiskMapTypes wraps the fragment info under the "i" key
type DiskMapTypes struct {
	Info DiskMapInfo `json:"i"`
}

// DiskMapInfo holds the fragment position and owners
type DiskMapInfo struct {
	Begin  uint64         `json:"b"`
	Length uint64         `json:"l"`
	Files  []DiskMapOwner `json:"f"`
}

// DiskMapOwner is one attribute run claiming a fragment
type DiskMapOwner struct {
	Volume     int    `json:"vol"`
	Inode      uint64 `json:"inum"`
	AttrID     uint16 `json:"attrId"`
	Slack      bool   `json:"s"`
	RunBegin   uint64 `json:"drbeg"`
	FileOffset uint64 `json:"fo"`
}

// NewDiskMapRecord builds the record of one fragment of filesystem vol
func NewDiskMapRecord(vol int, frag allocation.Fragment) DiskMapRecord {
	owners := make([]DiskMapOwner, 0, len(frag.Owners))
	for _, o := range frag.Owners {
		owners = append(owners, DiskMapOwner{
			Volume:     vol,
			Inode:      o.Inode,
			AttrID:     o.AttrID,
			Slack:      o.Slack,
			RunBegin:   o.RunStart,
			FileOffset: o.FileOffset,
		})
	}
	return DiskMapRecord{
		ID: MakeDiskMapID(frag.Range.Begin),
		Body: DiskMapTypes{Info: DiskMapInfo{
			Begin:  frag.Range.Begin,
			Length: frag.Range.Len(),
			Files:  owners,
		}},
	}
}

// WriteDiskMap writes one JSON line per allocated fragment, filesystems in
// index order and fragments by ascending offset. It returns the line count.
func WriteDiskMap(w io.Writer, m *allocation.Map) (int, error) {
	enc := json.NewEncoder(w)
	var lines int
	for _, idx := range m.Indices() {
		layout, _ := m.Layout(idx)
		var err error
		layout.Ascend(func(frag allocation.Fragment) bool {
			if err = enc.Encode(NewDiskMapRecord(idx, frag)); err != nil {
				return false
			}
			lines++
			return true
		})
		if err != nil {
			return lines, fmt.Errorf("writing disk map for volume %d: %w", idx, err)
		}
	}
	return lines, nil
}
