package index

import "errors"

// ErrDuplicateID is returned by Add when a record ID is already indexed.
var ErrDuplicateID = errors.New("duplicate record id")
