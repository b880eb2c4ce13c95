package store

import "errors"

// ErrConflict is returned by conditional writes when the stored version no
// longer matches the caller's snapshot.
var ErrConflict = errors.New("conflict")
