// Package origoerrors defines the sentinel error kinds the engine and
// storage packages surface, grouped the way §7 of the design groups them:
// registration, lookup, I/O, corruption, torn tail, and snapshot failure.
package origoerrors

import "errors"

var (
	// ErrDuplicateIdentifier is returned when two commands register under the
	// same persisted identifier.
	ErrDuplicateIdentifier = errors.New("origo: duplicate command identifier")

	// ErrReservedByte is returned when a text-variant identifier contains the
	// '{' byte reserved for the JSON payload boundary.
	ErrReservedByte = errors.New("origo: identifier contains reserved '{' byte")

	// ErrInvalidIdentifier is returned when an identifier is not valid UTF-8.
	ErrInvalidIdentifier = errors.New("origo: identifier is not valid UTF-8")

	// ErrUnknownCommand is returned when execute is called with a command type
	// that was never registered with the engine builder.
	ErrUnknownCommand = errors.New("origo: command type not registered")

	// ErrUnknownRestoreFn is returned during replay when the journal names an
	// identifier with no matching registration.
	ErrUnknownRestoreFn = errors.New("origo: no restore function registered for identifier")

	// ErrCorruptJournal is returned when a journal record fails its structural
	// checks (length mismatch, missing terminator not at EOF, bad header count).
	ErrCorruptJournal = errors.New("origo: corrupt journal")

	// ErrTornTail is the internal marker for a recoverable partial trailing
	// record in a text-variant journal; it never escapes restore().
	ErrTornTail = errors.New("origo: torn tail record")

	// ErrSnapshotFailed marks a failure while encoding/decoding a snapshot file.
	ErrSnapshotFailed = errors.New("origo: snapshot failed")

	// ErrCommitFailed marks a failure while appending or fsyncing a journal
	// record; per §7 this is process-fatal for the caller of execute.
	ErrCommitFailed = errors.New("origo: commit failed")
)
