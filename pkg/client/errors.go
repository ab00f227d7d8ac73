package client

import "fmt"

// ErrNotFound is returned when an object or transaction is still not
// visible after the bounded retry policy is exhausted. It is distinct
// from a network or server failure: the resource may simply not exist.
type ErrNotFound struct {
	Path string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Path)
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// ErrCreatedObjectNotFound is returned when a creation transaction
// finalized but its object-change list has no created object of the
// expected type. The transaction may well have succeeded; the object
// identification heuristic failed, which callers should surface as an
// actionable error rather than a network failure.
type ErrCreatedObjectNotFound struct {
	TypeTag string
	Digest  string
}

func (e *ErrCreatedObjectNotFound) Error() string {
	return fmt.Sprintf("transaction %s finalized but no created %s was found in its object changes", e.Digest, e.TypeTag)
}

func IsCreatedObjectNotFound(err error) bool {
	_, ok := err.(*ErrCreatedObjectNotFound)
	return ok
}
