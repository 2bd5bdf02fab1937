package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/deploymenttheory/go-fsrip/internal/allocation"
	"github.com/deploymenttheory/go-fsrip/internal/ids"
	"github.com/deploymenttheory/go-fsrip/internal/inodes"
	"github.com/deploymenttheory/go-fsrip/internal/types"
	"github.com/deploymenttheory/go-fsrip/internal/unallocated"
)

// WriterOptions configures unallocated space synthesis
type WriterOptions struct {
	Mode unallocated.Mode
	// MaxUnallocatedBlocks caps fragment length in fragment mode; 0 means unbounded
	MaxUnallocatedBlocks uint64
}

// WriterStats summarises a finished walk
type WriterStats struct {
	Entries     uint64 `json:"entries" yaml:"entries"`
	Synthetic   uint64 `json:"synthetic" yaml:"synthetic"`
	Failed      uint64 `json:"failed" yaml:"failed"`
	Abandoned   int    `json:"abandonedFilesystems" yaml:"abandonedFilesystems"`
	Filesystems int    `json:"filesystems" yaml:"filesystems"`
	// HardLinked counts inodes referenced by more than one entry
	HardLinked int `json:"hardLinkedInodes" yaml:"hardLinkedInodes"`
}

// MetadataWriter is the visitor that assigns entry IDs, emits one JSON
// record per entry, tracks allocation and builds the reverse inode index.
// It must be driven by a single goroutine.
type MetadataWriter struct {
	counter *FileCounter
	enc     *json.Encoder
	log     zerolog.Logger
	opts    WriterOptions

	stack *ids.Stack
	alloc *allocation.Map
	index *inodes.Index

	fs        *types.Filesystem
	fsRecord  FsRecord
	abandoned bool
	stats     WriterStats
}

// NewMetadataWriter creates a writer emitting records to out
func NewMetadataWriter(out io.Writer, logger zerolog.Logger, opts WriterOptions) (*MetadataWriter, error) {
	if out == nil {
		return nil, fmt.Errorf("record output cannot be nil")
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	return &MetadataWriter{
		counter: NewFileCounter(),
		enc:     enc,
		log:     logger,
		opts:    opts,
		stack:   ids.NewStack(),
		alloc:   allocation.NewMap(),
		index:   inodes.NewIndex(),
	}, nil
}

// Allocation returns the allocation map filled during the walk
func (w *MetadataWriter) Allocation() *allocation.Map { return w.alloc }

// Inodes returns the reverse inode index filled during the walk
func (w *MetadataWriter) Inodes() *inodes.Index { return w.index }

// Counter returns the entry counts
func (w *MetadataWriter) Counter() *FileCounter { return w.counter }

// Stats returns the walk summary so far
func (w *MetadataWriter) Stats() WriterStats {
	stats := w.stats
	stats.HardLinked = len(w.index.HardLinked())
	return stats
}

// Filesystems returns the entry counts with the sector span each
// filesystem's allocation layout covers
func (w *MetadataWriter) Filesystems() []FilesystemCount {
	fss := w.counter.Filesystems()
	for i := range fss {
		if l, ok := w.alloc.Layout(fss[i].VolumeIndex); ok {
			fss[i].StartSector = l.StartSector()
			fss[i].EndSector = l.EndSector()
		}
	}
	return fss
}

// EnterFilesystem makes fs current, resets the directory stack and creates
// its allocation layout
func (w *MetadataWriter) EnterFilesystem(fs *types.Filesystem) error {
	if fs == nil {
		return fmt.Errorf("filesystem cannot be nil")
	}
	if fs.Bounds.Empty() {
		fs.Bounds = fs.DefaultBounds()
	}
	if err := w.counter.EnterFilesystem(fs); err != nil {
		return err
	}

	w.fs = fs
	w.fsRecord = newFsRecord(fs)
	w.abandoned = false
	w.stack.Reset()
	w.alloc.AddFilesystem(fs.VolumeIndex, fs.BlockSize, fs.Bounds)
	w.stats.Filesystems++

	w.log.Debug().
		Int("volume", fs.VolumeIndex).
		Str("type", fs.TypeName).
		Uint64("byteOffset", fs.ByteOffset).
		Uint64("blockSize", fs.BlockSize).
		Msg("entering filesystem")
	return nil
}

// ProcessFile handles one walker entry. Failures are logged with the running
// entry count and do not stop the walk. A broken walk order abandons the
// rest of the current filesystem.
func (w *MetadataWriter) ProcessFile(entry *types.Entry) error {
	if entry == nil {
		return nil
	}
	_ = w.counter.ProcessFile(entry)
	w.handle(entry)
	return nil
}

func (w *MetadataWriter) handle(entry *types.Entry) {
	if w.fs == nil {
		w.stats.Failed++
		w.log.Error().Uint64("entry", w.counter.NumFiles).Str("path", entry.Path).Msg("entry delivered before any filesystem")
		return
	}
	if w.abandoned {
		w.stats.Failed++
		return
	}

	err := w.processEntry(entry)
	switch {
	case err == nil:
		w.stats.Entries++
		if entry.Synthetic {
			w.stats.Synthetic++
		}
	case errors.Is(err, ids.ErrInconsistentWalkState):
		w.abandoned = true
		w.stats.Failed++
		w.stats.Abandoned++
		w.log.Error().Err(err).
			Uint64("entry", w.counter.NumFiles).
			Int("volume", w.fs.VolumeIndex).
			Msg("abandoning filesystem")
	default:
		w.stats.Failed++
		w.log.Error().Err(err).
			Uint64("entry", w.counter.NumFiles).
			Str("path", entry.Path).
			Str("name", entry.DisplayName()).
			Msg("error processing entry")
	}
}

func (w *MetadataWriter) processEntry(entry *types.Entry) error {
	dir, err := w.stack.EnterOrReturn(entry.Path)
	if err != nil {
		return err
	}
	id := w.stack.NewEntryID()

	rec := FileRecord{
		ID:        id.RecordID(),
		Parent:    dir.ID().RecordID(),
		FS:        w.fsRecord,
		Path:      entry.Path,
		Synthetic: entry.Synthetic,
	}
	if entry.IsDirectory() {
		rec.Children = ids.EntryID(ids.PrefixEnd(w.stack.NewEntryChildPrefix())).RecordID()
	}
	if entry.Name != nil {
		rec.Name = newNameRecord(entry.Name, dir.Count()-1)
	}
	if entry.Meta != nil {
		rec.Meta = newMetaRecord(entry.Meta)
	}
	if len(entry.Attrs) > 0 {
		rec.Attrs = make([]AttrRecord, 0, len(entry.Attrs))
		for i := range entry.Attrs {
			rec.Attrs = append(rec.Attrs, newAttrRecord(&entry.Attrs[i], w.fs.BlockSize))
		}
	}

	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing record %s: %w", rec.ID, err)
	}

	if entry.Synthetic || entry.Meta == nil {
		return nil
	}
	w.index.RecordReference(w.fs.VolumeIndex, entry.Meta.Addr, id)
	if entry.Meta.Flags&types.MetaFlagAlloc != 0 {
		w.markAllocated(entry)
	}
	return nil
}

// markAllocated claims the on-disk runs of every non-resident attribute,
// the part past the logical size as slack
func (w *MetadataWriter) markAllocated(entry *types.Entry) {
	fs := w.fs
	for i := range entry.Attrs {
		attr := &entry.Attrs[i]
		if !attr.IsNonResident() {
			continue
		}
		for _, run := range attr.Runs {
			if run.Flags.HasNoBacking() || run.Len == 0 {
				continue
			}
			start := fs.BlockToByte(run.Addr)
			fileOffset := run.Offset * fs.BlockSize
			inside, slack := splitSlack(run, attr.Size, fs.BlockSize)
			if inside > 0 {
				w.alloc.MarkRun(fs.VolumeIndex, start, start+inside, fileOffset, entry.Meta.Addr, attr.ID, false)
			}
			if slack > 0 {
				w.alloc.MarkRun(fs.VolumeIndex, start+inside, start+inside+slack, fileOffset+inside, entry.Meta.Addr, attr.ID, true)
			}
		}
	}
}

// StartUnallocated synthesizes entries for the unclaimed space of the
// current filesystem and feeds them through the same entry path as real ones
func (w *MetadataWriter) StartUnallocated() error {
	fs := w.fs
	if fs == nil || w.opts.Mode == unallocated.ModeNone {
		return nil
	}
	if !fs.HasRuns {
		w.log.Warn().Int("volume", fs.VolumeIndex).Msg("walker reports no data runs, skipping unallocated space")
		return nil
	}
	layout, ok := w.alloc.Layout(fs.VolumeIndex)
	if !ok {
		return nil
	}

	// synthetic entries hang off the root, which is always on the stack
	w.abandoned = false

	builder := unallocated.NewSyntheticEntryBuilder(fs, w.opts.Mode)
	rec := unallocated.NewReconstructor(w.opts.Mode, w.opts.MaxUnallocatedBlocks)

	before := w.stats.Synthetic
	_ = w.ProcessFile(builder.Directory())
	err := rec.Each(fs, layout, func(br types.BlockRange) error {
		return w.ProcessFile(builder.Fragment(br))
	})
	w.log.Info().
		Int("volume", fs.VolumeIndex).
		Str("mode", w.opts.Mode.String()).
		Uint64("entries", w.stats.Synthetic-before).
		Msg("unallocated space synthesized")
	return err
}

// FinishWalk logs the summary of the walk
func (w *MetadataWriter) FinishWalk() error {
	w.log.Info().
		Uint64("entries", w.stats.Entries).
		Uint64("synthetic", w.stats.Synthetic).
		Uint64("failed", w.stats.Failed).
		Int("filesystems", w.stats.Filesystems).
		Msg("walk finished")
	return nil
}
