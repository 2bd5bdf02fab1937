package info

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-fsrip/internal/types"
	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

// Request asks for the layout of an image
type Request struct {
	Target app.ImageTarget
}

// Response wraps the image description
type Response struct {
	Image *types.ImageInfo `json:"image" yaml:"image"`
}

// Validate validates an info request
func (r *Request) Validate() error {
	return r.Target.Validate()
}

// Handle describes the image without walking directory trees
func Handle(ctx *app.Context, req *Request) (resp *Response, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx.Log(req.Target.String())

	walker, err := app.OpenImage(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, walker.Close()) }()

	image, err := walker.Describe()
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to describe image", err)
	}
	return &Response{Image: image}, nil
}

// FormatOutput writes the response in the requested format
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
		return formatTable(w, response.Image)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatTable(out io.Writer, image *types.ImageInfo) error {
	p := app.NumberPrinter()
	p.Fprintf(out, "Image:       %v\n", image.Files)
	if image.Description != "" {
		p.Fprintf(out, "Description: %s\n", image.Description)
	}
	p.Fprintf(out, "Size:        %d bytes\n", image.Size)
	p.Fprintf(out, "Sector size: %d\n", image.SectorSize)

	if fs := image.Filesystem; fs != nil {
		p.Fprintf(out, "\nFilesystem:  %s at byte %d, %d blocks of %d bytes\n",
			fs.TypeName, fs.ByteOffset, fs.NumBlocks, fs.BlockSize)
	}

	vs := image.VolumeSystem
	if vs == nil {
		return nil
	}
	p.Fprintf(out, "\nVolume system: %s (%d volumes, block size %d)\n\n", vs.Type, vs.NumVolumes, vs.BlockSize)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "IDX\tDESCRIPTION\tFLAGS\tSTART\tBLOCKS\tFILESYSTEM\n")
	fmt.Fprintf(w, "---\t-----------\t-----\t-----\t------\t----------\n")
	for _, v := range vs.Volumes {
		fsName := "-"
		if v.Filesystem != nil {
			fsName = v.Filesystem.TypeName
		}
		p.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n", v.Index, v.Description, v.Flags, v.StartBlock, v.NumBlocks, fsName)
	}
	return w.Flush()
}
