package scaffold

import "errors"

var (
	// ErrInvalidArgument is returned for empty or malformed names
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidExtension is returned when a name lacks the expected extension
	ErrInvalidExtension = errors.New("file name has the wrong extension")
	// ErrAlreadyExists is returned when the target file exists
	ErrAlreadyExists = errors.New("file already exists")
	// ErrNoFreeName is returned when every candidate name is taken
	ErrNoFreeName = errors.New("no free file name")
	// ErrNoTemplate is returned for a kind without a default template
	ErrNoTemplate = errors.New("no default template for config kind")
	// ErrUnsupportedArtifact is returned when a kind cannot import the artifact
	ErrUnsupportedArtifact = errors.New("config kind cannot import artifact")
	// ErrLocked is returned when another writer holds the file lock
	ErrLocked = errors.New("config file is locked by another writer")
)
