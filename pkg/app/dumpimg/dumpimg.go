package dumpimg

import (
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

// Request asks for the raw bytes of an image, segments concatenated
type Request struct {
	Target app.ImageTarget
}

// Response reports how much was copied
type Response struct {
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// Validate validates a dump request
func (r *Request) Validate() error {
	return r.Target.Validate()
}

// Handle copies every segment in order to ctx.Stdout
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp := &Response{}
	for _, path := range req.Target.Paths {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		n, err := copySegment(ctx, path)
		resp.Bytes += n
		if err != nil {
			return resp, err
		}
		ctx.Log(fmt.Sprintf("Copied %d bytes from %s", n, path))
	}
	return resp, nil
}

func copySegment(ctx *app.Context, path string) (n int64, err error) {
	f, err := ctx.Fs.Open(path)
	if err != nil {
		return 0, app.NewError(app.ErrCodeImageAccess, "failed to open image segment", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	n, err = io.Copy(ctx.Stdout, f)
	if err != nil {
		return n, app.NewError(app.ErrCodeImageAccess, "failed to copy image segment "+path, err)
	}
	return n, nil
}
