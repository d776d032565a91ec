package pipeline

import "errors"

var (
	// ErrRootRequired is returned when no input directory is specified.
	ErrRootRequired = errors.New("input directory is required")

	// ErrInvalidQuality is returned when compression quality is out of range.
	ErrInvalidQuality = errors.New("compression quality must be between 1 and 100")
)
