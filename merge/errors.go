package merge

import (
	"errors"
)

var (
	ErrMissingRequiredColumn = errors.New("missing required column")
	ErrAmbiguousKeyMatch     = errors.New("ambiguous key match")
	ErrDuplicateColumn       = errors.New("duplicate column name")
	ErrWriteFailure          = errors.New("write failure")
)
