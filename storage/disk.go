package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/driftpursuit/origo/codec"
	"github.com/driftpursuit/origo/metrics"
	"github.com/driftpursuit/origo/origoerrors"
	"github.com/driftpursuit/origo/origolog"
)

const diskBufferCapacity = 32 * 1024

// snapshotFileName is the literal sibling filename the original implementation
// always used, regardless of storage variant (§6, §9 supplemented features).
const snapshotFileName = "snap.origors"

// headerSize is the binary journal's 8-byte committed-record-count header.
const headerSize = 8

// DiskOption configures optional Disk behaviour at construction time.
type DiskOption func(*diskOptions)

type diskOptions struct {
	archiveOnSnapshot bool
	logger            *origolog.Logger
	metrics           *metrics.Storage
}

// WithArchiveOnSnapshot compresses the pre-truncation journal into
// <dir>/archive/journal-<seq>.bin.zst before truncating, grounded on the
// teacher's replay.Writer wrapping its frame stream in a zstd.Encoder.
func WithArchiveOnSnapshot(enabled bool) DiskOption {
	return func(o *diskOptions) { o.archiveOnSnapshot = enabled }
}

// WithLogger attaches a structured logger; defaults to origolog.Default().
func WithLogger(l *origolog.Logger) DiskOption {
	return func(o *diskOptions) { o.logger = l }
}

// WithMetrics attaches a counter set; defaults to a private, unexported one.
func WithMetrics(m *metrics.Storage) DiskOption {
	return func(o *diskOptions) { o.metrics = m }
}

// Disk is the binary journal variant described in §4.2 and §6: an 8-byte
// committed-record-count header followed by length-prefixed records, with
// snapshots compacting the journal to zero records.
type Disk[M any] struct {
	dir         string
	journalPath string
	file        *os.File
	writer      *bufio.Writer
	codec       codec.Binary
	count       uint64
	commitBuf   bytes.Buffer
	opts        diskOptions
}

// NewDisk opens (or creates) the journal at path and its sibling snapshot
// file's directory. The directory is created on demand per §6.
func NewDisk[M any](path string, options ...DiskOption) (*Disk[M], error) {
	opts := diskOptions{logger: origolog.Default(), metrics: metrics.NewStorage()}
	for _, apply := range options {
		apply(&opts)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("origo: creating journal directory: %w", err)
		}
	}

	existed := fileExists(path)
	// Not O_APPEND: the header is rewritten with positional writes, which
	// os.File refuses in append mode. Commit seeks to the end instead.
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("origo: opening journal: %w", err)
	}

	d := &Disk[M]{
		dir:         dir,
		journalPath: path,
		file:        file,
		writer:      bufio.NewWriterSize(file, diskBufferCapacity),
		codec:       codec.NewBinary(),
		opts:        opts,
	}

	if !existed {
		if _, err := file.WriteAt(make([]byte, headerSize), 0); err != nil {
			file.Close()
			return nil, fmt.Errorf("origo: initializing journal header: %w", err)
		}
		if err := file.Sync(); err != nil {
			file.Close()
			return nil, fmt.Errorf("origo: syncing new journal: %w", err)
		}
	}

	return d, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (d *Disk[M]) snapshotPath() string {
	return filepath.Join(d.dir, snapshotFileName)
}

// Prepare encodes the record into the commit buffer: total_len, name_len,
// name bytes, payload bytes — total_len counts the name_len field itself
// plus the name and payload bytes that follow it (§6).
func (d *Disk[M]) Prepare(identifier string, command any) error {
	payload, err := d.codec.EncodeCommand(command)
	if err != nil {
		return fmt.Errorf("origo: encoding command %q: %w", identifier, err)
	}
	nameBytes := []byte(identifier)

	d.commitBuf.Reset()
	d.commitBuf.Write(make([]byte, headerSize)) // placeholder for total_len
	var nameLenField [headerSize]byte
	binary.LittleEndian.PutUint64(nameLenField[:], uint64(len(nameBytes)))
	d.commitBuf.Write(nameLenField[:])
	d.commitBuf.Write(nameBytes)
	d.commitBuf.Write(payload)

	totalLen := uint64(headerSize + len(nameBytes) + len(payload))
	buf := d.commitBuf.Bytes()
	binary.LittleEndian.PutUint64(buf[:headerSize], totalLen)
	return nil
}

// Commit flushes the staged record, fsyncs it, then rewrites the header —
// fsyncing again so both are durable before returning, per §4.2's
// "header is updated after the record bytes are durably on media" combined
// with §8's commit-durability property.
func (d *Disk[M]) Commit() (CommitResult, error) {
	if _, err := d.file.Seek(0, io.SeekEnd); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	if _, err := d.writer.Write(d.commitBuf.Bytes()); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	if err := d.writer.Flush(); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	if err := d.file.Sync(); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}

	d.count++
	var header [headerSize]byte
	binary.LittleEndian.PutUint64(header[:], d.count)
	if _, err := d.file.WriteAt(header[:], 0); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	if err := d.file.Sync(); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}

	d.opts.metrics.ObserveCommit(d.commitBuf.Len())
	return CommitResult{Count: d.count}, nil
}

// Snapshot encodes model, fsyncs it, optionally archives the pre-truncation
// journal, then truncates the journal to zero records.
func (d *Disk[M]) Snapshot(model *M) error {
	payload, err := d.codec.EncodeModel(model)
	if err != nil {
		return fmt.Errorf("%w: encoding model: %v", origoerrors.ErrSnapshotFailed, err)
	}

	start := time.Now()
	if err := writeFileSynced(d.snapshotPath(), payload); err != nil {
		return fmt.Errorf("%w: %v", origoerrors.ErrSnapshotFailed, err)
	}
	d.opts.logger.Debug("snapshot written", origolog.String("path", d.snapshotPath()), origolog.Duration("elapsed", time.Since(start)))

	if d.opts.archiveOnSnapshot {
		if err := d.archiveJournalLocked(); err != nil {
			d.opts.logger.Warn("journal archive failed", origolog.Err(err))
		}
	}

	if err := d.file.Truncate(0); err != nil {
		return fmt.Errorf("%w: truncating journal: %v", origoerrors.ErrSnapshotFailed, err)
	}
	if _, err := d.file.WriteAt(make([]byte, headerSize), 0); err != nil {
		return fmt.Errorf("%w: resetting header: %v", origoerrors.ErrSnapshotFailed, err)
	}
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing journal reset: %v", origoerrors.ErrSnapshotFailed, err)
	}
	d.writer.Reset(d.file)
	d.count = 0
	d.opts.metrics.ObserveSnapshot()
	return nil
}

func (d *Disk[M]) archiveJournalLocked() error {
	current, err := os.ReadFile(d.journalPath)
	if err != nil {
		return err
	}
	archiveDir := filepath.Join(d.dir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("journal-%d.bin.zst", time.Now().UnixNano())
	out, err := os.Create(filepath.Join(archiveDir, name))
	if err != nil {
		return err
	}
	defer out.Close()
	enc, err := zstd.NewWriter(out)
	if err != nil {
		return err
	}
	if _, err := enc.Write(current); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Restore decodes the snapshot (if present) then replays the journal,
// dispatching each record through restoreFns by identifier. A missing
// identifier or decode failure is fatal, naming the offending record index.
func (d *Disk[M]) Restore(restoreFns map[string]RestoreFunc[M]) (*M, error) {
	model := new(M)
	if fileExists(d.snapshotPath()) {
		data, err := os.ReadFile(d.snapshotPath())
		if err != nil {
			return nil, fmt.Errorf("%w: reading snapshot: %v", origoerrors.ErrSnapshotFailed, err)
		}
		if err := d.codec.DecodeModel(data, model); err != nil {
			return nil, fmt.Errorf("%w: decoding snapshot: %v", origoerrors.ErrSnapshotFailed, err)
		}
	}

	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("origo: seeking journal: %w", err)
	}
	var header [headerSize]byte
	if _, err := io.ReadFull(d.file, header[:]); err != nil {
		return nil, fmt.Errorf("%w: reading journal header: %v", origoerrors.ErrCorruptJournal, err)
	}
	entryCount := binary.LittleEndian.Uint64(header[:])

	reader := bufio.NewReaderSize(d.file, diskBufferCapacity)
	var lenHeader, nameLenHeader [headerSize]byte
	for i := uint64(0); i < entryCount; i++ {
		if _, err := io.ReadFull(reader, lenHeader[:]); err != nil {
			return nil, fmt.Errorf("%w: record %d: truncated total_len: %v", origoerrors.ErrCorruptJournal, i, err)
		}
		totalLen := binary.LittleEndian.Uint64(lenHeader[:])
		if totalLen < headerSize {
			return nil, fmt.Errorf("%w: record %d: total_len %d smaller than name_len field", origoerrors.ErrCorruptJournal, i, totalLen)
		}

		if _, err := io.ReadFull(reader, nameLenHeader[:]); err != nil {
			return nil, fmt.Errorf("%w: record %d: truncated name_len: %v", origoerrors.ErrCorruptJournal, i, err)
		}
		nameLen := binary.LittleEndian.Uint64(nameLenHeader[:])
		payloadLen := totalLen - headerSize - nameLen

		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(reader, nameBytes); err != nil {
			return nil, fmt.Errorf("%w: record %d: truncated name: %v", origoerrors.ErrCorruptJournal, i, err)
		}
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return nil, fmt.Errorf("%w: record %d: truncated payload: %v", origoerrors.ErrCorruptJournal, i, err)
		}

		identifier := string(nameBytes)
		restoreFn, ok := restoreFns[identifier]
		if !ok {
			return nil, fmt.Errorf("%w: record %d: identifier %q", origoerrors.ErrUnknownRestoreFn, i, identifier)
		}
		if err := restoreFn(payload, model); err != nil {
			return nil, fmt.Errorf("%w: record %d (%s): %v", origoerrors.ErrCorruptJournal, i, identifier, err)
		}
		d.count++
	}

	d.opts.metrics.ObserveReplayed(int64(entryCount))
	d.writer.Reset(d.file)
	return model, nil
}

func (d *Disk[M]) Codec() codec.Codec { return d.codec }

func (d *Disk[M]) Close() error {
	if err := d.writer.Flush(); err != nil {
		return err
	}
	return d.file.Close()
}

func writeFileSynced(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
