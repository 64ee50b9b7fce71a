// Package engine implements §4.3 and §4.4: the command registry and the
// engine that owns the model, drives storage, and holds the two-lock
// discipline (storage, then model) that the rest of the spec depends on.
package engine

// Command is a user-defined mutation against model M. Identifier returns
// the stable string under which the command type is journaled; it replaces
// the source's runtime type-tag lookup with the static-method alternative
// sanctioned in §9 ("Type-identity tagging at execution").
//
// Apply is the sole authorized way to mutate M, and is only ever invoked
// inside the engine's exclusive write path or during replay.
type Command[M any] interface {
	Identifier() string
	Apply(model *M)
}
