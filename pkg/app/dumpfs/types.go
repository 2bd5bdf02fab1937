package dumpfs

import (
	"time"

	"github.com/deploymenttheory/go-fsrip/internal/services"
	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

// Request represents a metadata dump request
type Request struct {
	Target app.ImageTarget

	// Unallocated space synthesis: none, fragment or block
	Unallocated string
	// MaxUnallocatedBlocks caps fragment length, 0 is unbounded
	MaxUnallocatedBlocks uint64

	// Report files, empty to skip
	DiskMapFile  string
	InodeMapFile string
	OverviewFile string
}

// Response summarises a finished dump. The records themselves are streamed
// to the context's output while walking.
type Response struct {
	Stats       services.WriterStats       `json:"stats" yaml:"stats"`
	Filesystems []services.FilesystemCount `json:"filesystems" yaml:"filesystems"`
	Reports     []string                   `json:"reports,omitempty" yaml:"reports,omitempty"`
	// ReportErrors lists the reports that could not be written
	ReportErrors []string      `json:"report_errors,omitempty" yaml:"report_errors,omitempty"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}
