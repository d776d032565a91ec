package pipeline

import "time"

// Status is the terminal outcome of processing one file. Exactly one per
// record.
type Status int

const (
	// StatusCompressed: decode and re-encode succeeded, file rewritten.
	StatusCompressed Status = iota

	// StatusSkippedBackedUp: a backup from a prior run already exists,
	// so the file was left alone.
	StatusSkippedBackedUp

	// StatusSkippedByName: the naming policy excluded the file before any
	// file I/O.
	StatusSkippedByName

	// StatusUnreadable: the codec could not open or decode the file.
	StatusUnreadable

	// StatusCompressionError: decode succeeded but re-encode or write failed.
	StatusCompressionError
)

// FailureKind classifies where a per-file failure happened. Rendering to a
// human string is the report layer's job; the core stays locale-agnostic.
type FailureKind int

const (
	FailureBackup FailureKind = iota
	FailureDecode
	FailureEncode
)

// Failure is a classified per-file failure.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// FileRecord is the immutable result of processing one file. SizeAfter is
// meaningful only for StatusCompressed and StatusSkippedBackedUp (where it
// equals SizeBefore, the file being untouched).
type FileRecord struct {
	Path       string
	Ext        string // lower-cased, with leading dot
	SizeBefore int64
	SizeAfter  int64
	Status     Status
	Elapsed    time.Duration

	// Failure is non-nil when anything went wrong, including a backup
	// failure on a file that still compressed fine.
	Failure *Failure
}

// Reduced reports whether the record carries a valid before/after pair.
func (r *FileRecord) Reduced() bool {
	return r.Status == StatusCompressed || r.Status == StatusSkippedBackedUp
}
