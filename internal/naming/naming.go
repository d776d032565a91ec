// Package naming decides, from filenames alone, which files the batch
// should leave untouched and what their backups are called. Everything
// here is pure string work; no I/O happens in this package.
package naming

import (
	"path/filepath"
	"strings"
)

// Action is the outcome of classifying a filename.
type Action int

const (
	// NeedsFullProcessing means the file goes through backup and compression.
	NeedsFullProcessing Action = iota

	// NeedsSkip means the filename carries a suffix that excludes it
	// before any file I/O.
	NeedsSkip
)

// Policy holds the configured suffixes and toggles. The zero value
// matches nothing and skips nothing.
type Policy struct {
	OriginalSuffix string
	SkipSuffix     string
	SkipOriginal   bool
	SkipSkip       bool
}

// Classify evaluates the skip rules against a base filename. Rules are
// checked in order, first match wins: the skip suffix, then the original
// suffix, then full processing. Suffix matching is case-sensitive; the
// tool writes suffixes verbatim, so the round trip is exact.
func (p Policy) Classify(filename string) Action {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	if p.SkipSkip && p.SkipSuffix != "" && strings.HasSuffix(stem, p.SkipSuffix) {
		return NeedsSkip
	}
	if p.SkipOriginal && p.OriginalSuffix != "" && strings.HasSuffix(stem, p.OriginalSuffix) {
		return NeedsSkip
	}
	return NeedsFullProcessing
}

// BackupName returns the backup filename for an input file:
// the stem with the original suffix inserted before the extension.
func (p Policy) BackupName(filename string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	return stem + p.OriginalSuffix + ext
}
