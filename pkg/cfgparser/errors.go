package cfgparser

import "errors"

var (
	// ErrMalformed is returned by Decode when the text is not valid section syntax
	ErrMalformed = errors.New("malformed configuration text")
	// ErrEmptyKey is returned when encoding an entry without a key
	ErrEmptyKey = errors.New("configuration key must not be empty")
)
