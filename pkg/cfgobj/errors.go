package cfgobj

import "errors"

var (
	// ErrNoQuantizeSection is returned for layer operations on a kind without a quantization section
	ErrNoQuantizeSection = errors.New("config kind has no quantization section")
	// ErrUnrecognizedKind is returned when a path does not carry a known config extension
	ErrUnrecognizedKind = errors.New("unrecognized config kind")
	// ErrInvalidArgument is returned for empty names or fields
	ErrInvalidArgument = errors.New("invalid argument")
)
