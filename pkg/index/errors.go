package index

import "errors"

var (
	// ErrInconsistent is returned by Verify when the two mappings disagree
	ErrInconsistent = errors.New("association index is inconsistent")
	// ErrUnknownNodeKind is returned for a node kind other than config or artifact
	ErrUnknownNodeKind = errors.New("unknown node kind")
)
