package ledger

import "fmt"

// ErrObjectNotFound is returned when an object id does not exist.
type ErrObjectNotFound struct {
	ObjectID string
}

func (e *ErrObjectNotFound) Error() string {
	return fmt.Sprintf("object %s not found", e.ObjectID)
}

func IsObjectNotFound(err error) bool {
	_, ok := err.(*ErrObjectNotFound)
	return ok
}

// ErrTransactionNotFound is returned when a digest does not exist.
type ErrTransactionNotFound struct {
	Digest string
}

func (e *ErrTransactionNotFound) Error() string {
	return fmt.Sprintf("transaction %s not found", e.Digest)
}

func IsTransactionNotFound(err error) bool {
	_, ok := err.(*ErrTransactionNotFound)
	return ok
}

// ErrUnauthorized is returned when a sender submits a mutating
// transaction against an owned object it does not own.
type ErrUnauthorized struct {
	ObjectID string
	Sender   string
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("sender %s is not the owner of object %s", e.Sender, e.ObjectID)
}

func IsUnauthorized(err error) bool {
	_, ok := err.(*ErrUnauthorized)
	return ok
}

// ErrWrongObjectType is returned when an object id refers to an object
// of a different type than the entry point expects.
type ErrWrongObjectType struct {
	ObjectID string
	Want     string
	Got      string
}

func (e *ErrWrongObjectType) Error() string {
	return fmt.Sprintf("object %s is a %s, want %s", e.ObjectID, e.Got, e.Want)
}

func IsWrongObjectType(err error) bool {
	_, ok := err.(*ErrWrongObjectType)
	return ok
}
