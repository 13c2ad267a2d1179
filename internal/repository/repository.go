package repository

import "errors"

// ErrNotFound is returned when a reminder is absent, deleted, or not in the
// status the operation requires.
var ErrNotFound = errors.New("reminder not found")

// DefaultListLimit caps list queries.
const DefaultListLimit = 200
