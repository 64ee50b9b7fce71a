package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/driftpursuit/origo/codec"
	"github.com/driftpursuit/origo/origoerrors"
	"github.com/driftpursuit/origo/origolog"
	"github.com/driftpursuit/origo/storage"
)

// Engine holds the model and the storage handle, and owns the lock
// discipline described in §4.4 and §5: storage lock, then model lock, never
// the reverse. A single Engine[M] is meant to be shared across goroutines by
// pointer; it is not itself cloneable state the way the source's
// reference-counted handle is, but every exported method is goroutine-safe.
type Engine[M any] struct {
	storageMu sync.Mutex
	storage   storage.Storage[M]

	modelMu sync.RWMutex
	model   *M

	identifiers map[string]struct{}
	threshold   atomic.Uint64

	logger *origolog.Logger
}

// Execute is the engine's atomic write path (§4.4): acquire the storage
// lock, stage the record, acquire the model lock to apply it, release the
// model lock, commit the record to durable storage, release the storage
// lock. If the post-commit count equals the configured snapshot threshold,
// a background worker is spawned to snapshot without blocking the caller.
func (e *Engine[M]) Execute(cmd Command[M]) error {
	identifier := codec.NormalizeIdentifier(cmd.Identifier())
	if _, ok := e.identifiers[identifier]; !ok {
		return fmt.Errorf("%w: %q", origoerrors.ErrUnknownCommand, identifier)
	}

	e.storageMu.Lock()
	defer e.storageMu.Unlock()

	if err := e.storage.Prepare(identifier, cmd); err != nil {
		return err
	}

	e.modelMu.Lock()
	cmd.Apply(e.model)
	e.modelMu.Unlock()

	result, err := e.storage.Commit()
	if err != nil {
		return err
	}

	if result.Count == e.threshold.Load() {
		e.spawnSnapshot()
	}
	return nil
}

// spawnSnapshot launches the background snapshot worker described in §4.4
// and §9: it re-acquires the storage lock (this call already holds it, so
// the worker waits its turn the same as any other writer) then the model
// lock in shared mode, preserving the storage-then-model ordering.
func (e *Engine[M]) spawnSnapshot() {
	go func() {
		e.storageMu.Lock()
		defer e.storageMu.Unlock()

		e.modelMu.RLock()
		model := e.model
		err := e.storage.Snapshot(model)
		e.modelMu.RUnlock()

		if err != nil {
			e.logger.Warn("background snapshot failed", origolog.Err(err))
		}
	}()
}

// Query is the engine's read path (§4.4): acquire the model lock in shared
// mode, invoke f, release the lock, return f's result. f must not retain the
// *M pointer beyond the call.
func Query[M any, R any](e *Engine[M], f func(*M) R) R {
	e.modelMu.RLock()
	defer e.modelMu.RUnlock()
	return f(e.model)
}

// SetSnapshotThreshold atomically updates the commit-count threshold that
// triggers a background snapshot. Passing the maximum uint64 disables
// auto-snapshotting.
func (e *Engine[M]) SetSnapshotThreshold(n uint64) {
	e.threshold.Store(n)
}

// Close releases the underlying storage's file handles. Any in-flight
// Execute must have returned first; Close does not itself synchronize with
// Execute beyond taking the storage lock.
func (e *Engine[M]) Close() error {
	e.storageMu.Lock()
	defer e.storageMu.Unlock()
	return e.storage.Close()
}
