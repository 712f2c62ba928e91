package ocean

import "errors"

var (
	// ErrInvalidConfiguration reports an unsupported resolution, mismatched
	// buffer sizes between stages, or a malformed butterfly table.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMissingInput reports that the noise collaborator could not supply
	// the grids required to synthesize a spectrum.
	ErrMissingInput = errors.New("missing input")
)

// ErrClosed is returned by Advance after Close.
var ErrClosed = errors.New("simulator closed")
