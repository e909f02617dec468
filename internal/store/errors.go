package store

import "errors"

// ErrNotFound is returned when a requested row does not exist. Callers must
// be able to tell this apart from an empty listing or a store failure.
var ErrNotFound = errors.New("not found")
