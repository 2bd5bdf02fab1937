package count

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-fsrip/internal/services"
	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

// Request asks for entry counts
type Request struct {
	Target app.ImageTarget
}

// Response holds the total and per-filesystem counts
type Response struct {
	Total       uint64                     `json:"total" yaml:"total"`
	Filesystems []services.FilesystemCount `json:"filesystems" yaml:"filesystems"`
}

// Validate validates a count request
func (r *Request) Validate() error {
	return r.Target.Validate()
}

// Handle walks the image with a FileCounter, emitting nothing else
func Handle(ctx *app.Context, req *Request) (resp *Response, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	walker, err := app.OpenImage(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, walker.Close()) }()

	counter := services.NewFileCounter()
	if err := walker.Walk(ctx, counter); err != nil {
		return nil, app.NewError(app.ErrCodeWalkFailed, "walk failed", err)
	}
	ctx.Log(fmt.Sprintf("Counted %d entries", counter.NumFiles))
	return &Response{Total: counter.NumFiles, Filesystems: counter.Filesystems()}, nil
}

// FormatOutput writes the counts in the requested format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table", "":
		p := app.NumberPrinter()
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "VOL\tPARTITION\tTYPE\tENTRIES\n")
		for _, fs := range response.Filesystems {
			p.Fprintf(tw, "%d\t%s\t%s\t%d\n", fs.VolumeIndex, fs.VolumeName, fs.TypeName, fs.Entries)
		}
		p.Fprintf(tw, "\t\tTOTAL\t%d\n", response.Total)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
