package dumpfs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/deploymenttheory/go-fsrip/internal/interfaces"
	"github.com/deploymenttheory/go-fsrip/internal/reports"
	"github.com/deploymenttheory/go-fsrip/internal/services"
	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

// dumpSteps counts the progress steps of a dump
const dumpSteps = 4

// Handle walks the image, streams one record per entry to ctx.Stdout and
// then writes the requested reports. A report that cannot be written is
// logged and listed in ReportErrors; it does not fail the dump.
func Handle(ctx *app.Context, req *Request) (resp *Response, err error) {
	startTime := time.Now()

	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx.Log(fmt.Sprintf("Dumping filesystem metadata from %s", req.Target.String()))
	ctx.Progress("Opening image", 0, dumpSteps)

	// 2. Open the image
	walker, err := app.OpenImage(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, walker.Close()) }()

	response := &Response{}

	// 3. Overview first, it needs no walk
	if req.OverviewFile != "" {
		if err := writeOverview(ctx, walker, req.OverviewFile); err != nil {
			response.reportFailed(ctx, err)
		} else {
			response.Reports = append(response.Reports, req.OverviewFile)
		}
	}

	// 4. Walk
	ctx.Progress("Walking filesystems", 1, dumpSteps)
	out := bufio.NewWriter(ctx.Stdout)
	writer, err := services.NewMetadataWriter(out, ctx.Logger, services.WriterOptions{
		Mode:                 req.Mode(),
		MaxUnallocatedBlocks: req.MaxUnallocatedBlocks,
	})
	if err != nil {
		return nil, app.NewError(app.ErrCodeWalkFailed, "failed to create record writer", err)
	}
	walkErr := walker.Walk(ctx, writer)
	if flushErr := out.Flush(); flushErr != nil {
		walkErr = multierr.Append(walkErr, fmt.Errorf("flushing records: %w", flushErr))
	}
	if walkErr != nil {
		return nil, app.NewError(app.ErrCodeWalkFailed, "walk failed", walkErr)
	}

	// 5. Reports, concurrently
	ctx.Progress("Writing reports", 3, dumpSteps)
	exporter := reports.NewExporter(ctx.Fs, req.DiskMapFile, req.InodeMapFile, ctx.Logger)
	results, _ := exporter.Run(writer.Allocation(), writer.Inodes())
	for _, r := range results {
		if r.Err != nil {
			response.reportFailed(ctx, app.NewError(app.ErrCodeExportFailed, "failed to write "+r.Report, r.Err))
			continue
		}
		response.Reports = append(response.Reports, r.Path)
	}

	response.Stats = writer.Stats()
	response.Filesystems = writer.Filesystems()
	response.Elapsed = time.Since(startTime)

	ctx.Progress("Complete", dumpSteps, dumpSteps)
	ctx.Log(FormatSummary(response))
	return response, nil
}

func (r *Response) reportFailed(ctx *app.Context, err error) {
	ctx.Logger.Error().Err(err).Msg("report failed")
	r.ReportErrors = append(r.ReportErrors, err.Error())
}

// writeOverview stores the image description as indented JSON
func writeOverview(ctx *app.Context, walker interfaces.ImageWalker, path string) (err error) {
	image, err := walker.Describe()
	if err != nil {
		return app.NewError(app.ErrCodeImageAccess, "failed to describe image", err)
	}

	f, err := ctx.Fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return app.NewError(app.ErrCodeExportFailed, "failed to create overview file", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierr.Append(err, app.NewError(app.ErrCodeExportFailed, "failed to close overview file", cerr))
		}
	}()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(image); err != nil {
		return app.NewError(app.ErrCodeExportFailed, "failed to write overview file", err)
	}
	ctx.Logger.Info().Str("file", path).Msg("overview written")
	return nil
}
