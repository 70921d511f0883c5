package cfgkind

import "errors"

var (
	// ErrInvalidKind is returned when a kind is missing its name or extension
	ErrInvalidKind = errors.New("config kind requires a name and an extension")
	// ErrDuplicateKind is returned when a kind name or extension is already registered
	ErrDuplicateKind = errors.New("config kind already registered")
)
