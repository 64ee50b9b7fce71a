// Package storage implements §4.2: an append-only durable journal of
// commands plus snapshot read/write, in three variants (Disk, Json, Noop).
// All three satisfy Storage[M], the generic interface the engine drives.
package storage

import "github.com/driftpursuit/origo/codec"

// RestoreFunc decodes a journal payload and applies it to model. The engine
// builder constructs one per registered command type; storage never knows
// the concrete command type, only this closure — §4.3's "erased dispatch."
type RestoreFunc[M any] func(payload []byte, model *M) error

// CommitResult is returned by Commit. Count is the journal's running
// committed-record count after the append, used by the engine to compare
// against the configured snapshot threshold regardless of storage variant.
type CommitResult struct {
	Count uint64
}

// Storage is the capability set described in §4.2 and §6: prepare, commit,
// snapshot, restore. A Storage[M] instance is owned by exactly one engine
// for one file path; concurrent engines on the same path are undefined.
type Storage[M any] interface {
	// Prepare encodes command into a scratch buffer under the given
	// identifier. No I/O happens here; the caller (the engine, holding its
	// storage lock) guarantees no other write is in flight.
	Prepare(identifier string, command any) error

	// Commit atomically publishes the staged record: flush, fsync, then
	// (binary variant) rewrite the header. Returns once the record is
	// durable.
	Commit() (CommitResult, error)

	// Snapshot encodes model to the sibling snapshot file, fsyncs it, then
	// truncates the journal. Must not be called concurrently with
	// Prepare/Commit (enforced by the engine's storage lock).
	Snapshot(model *M) error

	// Restore decodes the snapshot (if any) or starts from a zero-value M,
	// then replays the journal by dispatching each record through
	// restoreFns. Returns the fully reconstructed model.
	Restore(restoreFns map[string]RestoreFunc[M]) (*M, error)

	// Close releases file handles. Safe to call once after the owning
	// engine is done with the storage instance.
	Close() error

	// Codec returns the codec this storage instance encodes/decodes
	// commands and models with, so the engine builder can decode replayed
	// payloads using the same format they were written in.
	Codec() codec.Codec
}
