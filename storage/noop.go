package storage

import "github.com/driftpursuit/origo/codec"

// Noop is the in-memory-only variant: no journal, no snapshot, restore
// always yields a zero-value model. Useful for tests and ephemeral engines.
type Noop[M any] struct{}

// NewNoop constructs a Noop storage instance.
func NewNoop[M any]() *Noop[M] { return &Noop[M]{} }

func (*Noop[M]) Prepare(identifier string, command any) error { return nil }

func (*Noop[M]) Commit() (CommitResult, error) { return CommitResult{Count: 0}, nil }

func (*Noop[M]) Snapshot(model *M) error { return nil }

func (*Noop[M]) Restore(restoreFns map[string]RestoreFunc[M]) (*M, error) {
	return new(M), nil
}

func (*Noop[M]) Close() error { return nil }

func (*Noop[M]) Codec() codec.Codec { return codec.NewJSON(false) }
