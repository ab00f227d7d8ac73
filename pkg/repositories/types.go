package repositories

// ErrNotFound is returned when no snapshot exists for a requested
// object id.
type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

// IsNotFound reports whether err means the snapshot is absent, as
// opposed to the store failing.
func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}
