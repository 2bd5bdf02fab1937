package dumpfs

import (
	"github.com/deploymenttheory/go-fsrip/internal/unallocated"
	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

// Validate validates a dump request
func (r *Request) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return err
	}

	if _, err := unallocated.ParseMode(r.Unallocated); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid unallocated mode", err)
	}

	// the same file cannot hold two reports
	paths := map[string]string{}
	for name, path := range map[string]string{
		"disk map":  r.DiskMapFile,
		"inode map": r.InodeMapFile,
		"overview":  r.OverviewFile,
	} {
		if path == "" {
			continue
		}
		if other, ok := paths[path]; ok {
			return app.NewError(app.ErrCodeInvalidInput, "the "+name+" and "+other+" reports share the file "+path, nil)
		}
		paths[path] = name
	}
	return nil
}

// Mode returns the parsed unallocated mode; call Validate first
func (r *Request) Mode() unallocated.Mode {
	mode, _ := unallocated.ParseMode(r.Unallocated)
	return mode
}
