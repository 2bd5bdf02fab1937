package reports

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/deploymenttheory/go-fsrip/internal/allocation"
	"github.com/deploymenttheory/go-fsrip/internal/inodes"
)

// ErrIOFailure marks a report that could not be written
var ErrIOFailure = errors.New("report I/O failure")

// Exporter writes the disk map and inode map once the walk is complete.
// An empty path disables the corresponding report.
type Exporter struct {
	Fs           afero.Fs
	DiskMapPath  string
	InodeMapPath string
	Logger       zerolog.Logger
}

// NewExporter creates an exporter writing to fs
func NewExporter(fs afero.Fs, diskMapPath, inodeMapPath string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		Fs:           fs,
		DiskMapPath:  diskMapPath,
		InodeMapPath: inodeMapPath,
		Logger:       logger,
	}
}

// Result is the outcome of one report. Err wraps ErrIOFailure when the
// report could not be written.
type Result struct {
	Report string
	Path   string
	Lines  int
	Err    error
}

// Run writes both reports concurrently and waits for them. The structures
// must no longer be modified. A failing report does not stop the other one.
// Results come back in report order; the error combines every failure.
func (e *Exporter) Run(m *allocation.Map, x *inodes.Index) ([]Result, error) {
	p := pool.NewWithResults[Result]()

	if e.DiskMapPath != "" && m != nil {
		p.Go(func() Result {
			return e.writeReport("disk map", e.DiskMapPath, func(w io.Writer) (int, error) {
				return WriteDiskMap(w, m)
			})
		})
	}
	if e.InodeMapPath != "" && x != nil {
		p.Go(func() Result {
			return e.writeReport("inode map", e.InodeMapPath, func(w io.Writer) (int, error) {
				return WriteInodeMap(w, x)
			})
		})
	}

	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Report < results[j].Report })

	var err error
	for _, r := range results {
		err = multierr.Append(err, r.Err)
	}
	return results, err
}

func (e *Exporter) writeReport(name, path string, write func(io.Writer) (int, error)) Result {
	lines, err := e.writeFile(name, path, write)
	if err != nil {
		e.Logger.Error().Err(err).Str("report", name).Str("path", path).Msg("report not written")
	} else {
		e.Logger.Info().Str("report", name).Str("path", path).Int("lines", lines).Msg("report written")
	}
	return Result{Report: name, Path: path, Lines: lines, Err: err}
}

// writeFile creates (truncating) path and fills it through a buffered writer
func (e *Exporter) writeFile(name, path string, write func(io.Writer) (int, error)) (lines int, err error) {
	f, err := e.Fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: creating %s %s: %v", ErrIOFailure, name, path, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, f.Close())
			return
		}
		if cerr := f.Close(); cerr != nil {
			err = fmt.Errorf("%w: closing %s %s: %v", ErrIOFailure, name, path, cerr)
		}
	}()

	buf := bufio.NewWriter(f)
	lines, err = write(buf)
	if err != nil {
		return lines, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := buf.Flush(); err != nil {
		return lines, fmt.Errorf("%w: flushing %s %s: %v", ErrIOFailure, name, path, err)
	}
	return lines, nil
}
