package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/driftpursuit/origo/codec"
	"github.com/driftpursuit/origo/origoerrors"
	"github.com/driftpursuit/origo/origolog"
	"github.com/driftpursuit/origo/storage"
)

// Builder accumulates command registrations and a storage instance, then
// produces an Engine. A registration error (§7 kind 1) is recorded on the
// builder rather than panicking immediately; once one is recorded, later
// registrations are skipped and Build returns that first error.
type Builder[M any] struct {
	storage    storage.Storage[M]
	restoreFns map[string]storage.RestoreFunc[M]
	logger     *origolog.Logger
	threshold  uint64
	err        error
}

// NewBuilder constructs a Builder over the given storage backend. The model
// itself is never supplied directly: it is always produced by
// storage.Restore, starting from M's zero value or a decoded snapshot.
func NewBuilder[M any](s storage.Storage[M]) *Builder[M] {
	return &Builder[M]{
		storage:    s,
		restoreFns: make(map[string]storage.RestoreFunc[M]),
		logger:     origolog.Default(),
		threshold:  ^uint64(0),
	}
}

// WithLogger attaches a structured logger used for build-time and
// background-snapshot diagnostics.
func (b *Builder[M]) WithLogger(l *origolog.Logger) *Builder[M] {
	b.logger = l
	return b
}

// WithSnapshotThreshold sets the initial commit-count threshold that
// triggers a background snapshot. The default is the maximum uint64, which
// disables auto-snapshotting, per §4.4.
func (b *Builder[M]) WithSnapshotThreshold(n uint64) *Builder[M] {
	b.threshold = n
	return b
}

// RegisterCommand records C's identifier and a restore function that
// decodes a journal payload into a C value and applies it to the model.
// Go methods cannot introduce new type parameters beyond their receiver, so
// this is a free function rather than a Builder method — the idiomatic
// shape for "register a type" in a generic Go API.
//
// The identifier is NFC-normalized before use as the registry/journal key,
// so visually identical identifiers typed with different combining-character
// sequences collide predictably (§9 Open Questions) rather than silently
// registering as distinct commands.
//
// Duplicate identifiers, identifiers containing the reserved '{' byte (which
// only the text variant uses as its payload boundary, §6), and non-UTF-8
// identifiers are construction errors recorded on the builder and surfaced
// by Build.
func RegisterCommand[M any, C Command[M]](b *Builder[M], identifier string) *Builder[M] {
	if b.err != nil {
		return b
	}
	if !utf8.ValidString(identifier) {
		b.err = fmt.Errorf("%w: identifier %q is not valid UTF-8", origoerrors.ErrInvalidIdentifier, identifier)
		return b
	}
	if _, isJSON := b.storage.Codec().(codec.JSON); isJSON && strings.ContainsRune(identifier, '{') {
		b.err = fmt.Errorf("%w: identifier %q contains reserved '{' byte", origoerrors.ErrReservedByte, identifier)
		return b
	}
	normalized := codec.NormalizeIdentifier(identifier)
	if _, exists := b.restoreFns[normalized]; exists {
		b.err = fmt.Errorf("%w: %q", origoerrors.ErrDuplicateIdentifier, identifier)
		return b
	}

	b.restoreFns[normalized] = func(payload []byte, model *M) error {
		var cmd C
		if err := b.storage.Codec().DecodeCommand(payload, &cmd); err != nil {
			return err
		}
		cmd.Apply(model)
		return nil
	}
	return b
}

// postRestoreWarmer is implemented by a model that keeps derived state (a
// cache, a secondary index) alongside the fields a codec decodes directly.
// A snapshot restore populates only the decoded fields, never replaying
// Apply, so Build calls AfterRestore once here — before the Engine is
// published to any goroutine — to give such a model a chance to rebuild
// what Apply would otherwise have kept warm incrementally.
type postRestoreWarmer interface {
	AfterRestore()
}

// Build calls storage.Restore(registry) to reconstruct the model from a
// snapshot (if any) plus replayed journal records, then wraps model and
// storage in the engine's two locks.
func (b *Builder[M]) Build() (*Engine[M], error) {
	if b.err != nil {
		return nil, b.err
	}

	model, err := b.storage.Restore(b.restoreFns)
	if err != nil {
		return nil, err
	}
	if w, ok := any(model).(postRestoreWarmer); ok {
		w.AfterRestore()
	}

	identifiers := make(map[string]struct{}, len(b.restoreFns))
	for id := range b.restoreFns {
		identifiers[id] = struct{}{}
	}

	e := &Engine[M]{
		model:       model,
		storage:     b.storage,
		identifiers: identifiers,
		logger:      b.logger,
	}
	e.threshold.Store(b.threshold)
	return e, nil
}

// MustBuild is Build but panics on error, for use in examples and tests
// where a construction failure is unrecoverable by definition.
func (b *Builder[M]) MustBuild() *Engine[M] {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}
