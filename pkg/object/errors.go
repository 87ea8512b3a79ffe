package object

import "errors"

// Failure categories. Callers classify with errors.Is; every site that
// returns one wraps it with context via fmt.Errorf("...: %w", ...).
var (
	// ErrMalformedObject reports an envelope or object body that does not
	// parse: bad header, size mismatch, unknown commit header.
	ErrMalformedObject = errors.New("malformed object")

	// ErrUnknownObjectType reports a pack entry type tag outside 1-7 or
	// equal to the reserved value 5.
	ErrUnknownObjectType = errors.New("unknown object type")

	// ErrNotFound reports a failed object lookup.
	ErrNotFound = errors.New("object not found")

	// ErrAmbiguousHash reports a prefix lookup matching more than one object.
	ErrAmbiguousHash = errors.New("ambiguous hash prefix")

	// ErrMalformedPack reports bad pack magic, a truncated record, or an
	// unsupported field combination.
	ErrMalformedPack = errors.New("malformed pack")

	// ErrUnresolvableDelta reports that at least one delta remained after
	// a resolver pass made no progress.
	ErrUnresolvableDelta = errors.New("unresolvable delta")
)
