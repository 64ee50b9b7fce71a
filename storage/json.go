package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"

	"github.com/driftpursuit/origo/codec"
	"github.com/driftpursuit/origo/metrics"
	"github.com/driftpursuit/origo/origoerrors"
	"github.com/driftpursuit/origo/origolog"
)

const jsonBufferCapacity = 32 * 1024

const jsonSnapshotFileName = "snap.json"

// JsonOption configures optional Json behaviour at construction time.
type JsonOption func(*jsonOptions)

type jsonOptions struct {
	logger            *origolog.Logger
	metrics           *metrics.Storage
	archiveOnSnapshot bool
}

// WithJSONLogger attaches a structured logger; defaults to origolog.Default().
func WithJSONLogger(l *origolog.Logger) JsonOption {
	return func(o *jsonOptions) { o.logger = l }
}

// WithJSONMetrics attaches a counter set; defaults to a private, unexported one.
func WithJSONMetrics(m *metrics.Storage) JsonOption {
	return func(o *jsonOptions) { o.metrics = m }
}

// WithJSONArchiveOnSnapshot snappy-compresses the pre-truncation text journal
// into <dir>/archive/journal-<seq>.jsonl.snappy before truncating it. Text
// journals favor snappy's low per-block latency over zstd's higher ratio,
// since Disk's binary journals already use zstd for archival (see
// Disk.archiveJournalLocked) and a line-oriented format compresses well
// enough with either.
func WithJSONArchiveOnSnapshot(enabled bool) JsonOption {
	return func(o *jsonOptions) { o.archiveOnSnapshot = enabled }
}

// Json is the text journal variant described in §4.2 and §6: one
// "<identifier><json_payload>\n" line per record, no file-level header.
type Json[M any] struct {
	dir         string
	journalPath string
	file        *os.File
	writer      *bufio.Writer
	codec       codec.JSON
	count       uint64
	commitBuf   bytes.Buffer
	opts        jsonOptions
}

// NewJson opens (or creates) the text journal at path.
func NewJson[M any](path string, options ...JsonOption) (*Json[M], error) {
	opts := jsonOptions{logger: origolog.Default(), metrics: metrics.NewStorage()}
	for _, apply := range options {
		apply(&opts)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("origo: creating journal directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("origo: opening journal: %w", err)
	}

	return &Json[M]{
		dir:         dir,
		journalPath: path,
		file:        file,
		writer:      bufio.NewWriterSize(file, jsonBufferCapacity),
		codec:       codec.NewJSON(false),
		opts:        opts,
	}, nil
}

func (j *Json[M]) snapshotPath() string {
	return filepath.Join(j.dir, jsonSnapshotFileName)
}

// Prepare stages "<identifier><payload>" with no trailing newline yet; the
// newline is written by Commit so partial writes are easy to detect on
// replay. identifier is NFC-normalized before being written, so the key
// written to the journal always matches the key Restore looks commands up
// by (§9 Open Questions).
func (j *Json[M]) Prepare(identifier string, command any) error {
	payload, err := j.codec.EncodeCommand(command)
	if err != nil {
		return fmt.Errorf("origo: encoding command %q: %w", identifier, err)
	}
	j.commitBuf.Reset()
	j.commitBuf.WriteString(codec.NormalizeIdentifier(identifier))
	j.commitBuf.Write(payload)
	return nil
}

func (j *Json[M]) Commit() (CommitResult, error) {
	if _, err := j.writer.Write(j.commitBuf.Bytes()); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	if err := j.writer.WriteByte('\n'); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	if err := j.writer.Flush(); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	if err := j.file.Sync(); err != nil {
		return CommitResult{}, fmt.Errorf("%w: %v", origoerrors.ErrCommitFailed, err)
	}
	j.count++
	j.opts.metrics.ObserveCommit(j.commitBuf.Len())
	return CommitResult{Count: j.count}, nil
}

func (j *Json[M]) Snapshot(model *M) error {
	codecPretty := codec.NewJSON(true)
	payload, err := codecPretty.EncodeModel(model)
	if err != nil {
		return fmt.Errorf("%w: encoding model: %v", origoerrors.ErrSnapshotFailed, err)
	}

	start := time.Now()
	if err := writeFileSynced(j.snapshotPath(), payload); err != nil {
		return fmt.Errorf("%w: %v", origoerrors.ErrSnapshotFailed, err)
	}
	j.opts.logger.Debug("snapshot written", origolog.String("path", j.snapshotPath()), origolog.Duration("elapsed", time.Since(start)))

	if j.opts.archiveOnSnapshot {
		if err := j.archiveJournalLocked(); err != nil {
			j.opts.logger.Warn("journal archive failed", origolog.Err(err))
		}
	}

	if err := j.file.Truncate(0); err != nil {
		return fmt.Errorf("%w: truncating journal: %v", origoerrors.ErrSnapshotFailed, err)
	}
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: rewinding journal: %v", origoerrors.ErrSnapshotFailed, err)
	}
	j.writer.Reset(j.file)
	j.count = 0
	j.opts.metrics.ObserveSnapshot()
	return nil
}

// Restore decodes the snapshot (if present) then replays the journal line
// by line. A final line lacking its terminating '\n' at EOF is a torn tail:
// it is truncated away and replay continues successfully (§4.2, §7 kind 5).
func (j *Json[M]) Restore(restoreFns map[string]RestoreFunc[M]) (*M, error) {
	model := new(M)
	if fileExists(j.snapshotPath()) {
		data, err := os.ReadFile(j.snapshotPath())
		if err != nil {
			return nil, fmt.Errorf("%w: reading snapshot: %v", origoerrors.ErrSnapshotFailed, err)
		}
		if err := j.codec.DecodeModel(data, model); err != nil {
			return nil, fmt.Errorf("%w: decoding snapshot: %v", origoerrors.ErrSnapshotFailed, err)
		}
	}

	info, err := j.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("origo: stat journal: %w", err)
	}
	fileLen := info.Size()
	if fileLen == 0 {
		return model, nil
	}

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("origo: seeking journal: %w", err)
	}
	reader := bufio.NewReaderSize(j.file, jsonBufferCapacity)

	var totalRead int64
	var recordIndex int64
	for {
		line, err := reader.ReadBytes('\n')
		totalRead += int64(len(line))

		if err == io.EOF {
			if len(line) == 0 {
				break
			}
			// torn tail: the final chunk reached EOF without a '\n'.
			j.opts.logger.Warn("removing torn tail record from journal", origolog.Int64("record", recordIndex))
			if truncErr := j.file.Truncate(fileLen - int64(len(line))); truncErr != nil {
				return nil, fmt.Errorf("origo: truncating torn tail: %w", truncErr)
			}
			j.opts.metrics.ObserveTornTail()
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading record %d: %v", origoerrors.ErrCorruptJournal, recordIndex, err)
		}

		boundary := bytes.IndexByte(line, '{')
		if boundary < 0 {
			return nil, fmt.Errorf("%w: record %d: no '{' payload boundary found", origoerrors.ErrCorruptJournal, recordIndex)
		}
		identifier := codec.NormalizeIdentifier(string(line[:boundary]))
		payload := line[boundary : len(line)-1] // strip trailing '\n'

		restoreFn, ok := restoreFns[identifier]
		if !ok {
			return nil, fmt.Errorf("%w: record %d: identifier %q", origoerrors.ErrUnknownRestoreFn, recordIndex, identifier)
		}
		if err := restoreFn(payload, model); err != nil {
			return nil, fmt.Errorf("%w: record %d (%s): %v", origoerrors.ErrCorruptJournal, recordIndex, identifier, err)
		}
		j.count++
		recordIndex++
	}

	j.opts.metrics.ObserveReplayed(recordIndex)
	if _, err := j.file.Seek(0, io.SeekEnd); err != nil {
		return nil, fmt.Errorf("origo: seeking to journal end: %w", err)
	}
	j.writer.Reset(j.file)
	return model, nil
}

func (j *Json[M]) archiveJournalLocked() error {
	current, err := os.ReadFile(j.journalPath)
	if err != nil {
		return err
	}
	archiveDir := filepath.Join(j.dir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("journal-%d.jsonl.snappy", time.Now().UnixNano())
	compressed := snappy.Encode(nil, current)
	return os.WriteFile(filepath.Join(archiveDir, name), compressed, 0o644)
}

func (j *Json[M]) Codec() codec.Codec { return j.codec }

func (j *Json[M]) Close() error {
	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}
