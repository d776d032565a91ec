package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hsuyc/imgshrink/internal/codec"
	"github.com/hsuyc/imgshrink/internal/naming"
)

// processFile handles one file: classify → backup → recompress. Every
// failure path lands in the returned record; nothing escapes, so one bad
// file can never take the batch down. Elapsed covers the whole call,
// backup and codec work included.
func processFile(path string, opts *Options) FileRecord {
	start := time.Now()
	rec := FileRecord{
		Path: path,
		Ext:  strings.ToLower(filepath.Ext(path)),
	}

	if opts.policy().Classify(filepath.Base(path)) == naming.NeedsSkip {
		// Cheap stat only; no decode, no backup.
		if fi, err := os.Stat(path); err == nil {
			rec.SizeBefore = fi.Size()
		} else {
			rec.Failure = &Failure{Kind: FailureDecode, Err: fmt.Errorf("stat: %w", err)}
		}
		rec.Status = StatusSkippedByName
		rec.Elapsed = time.Since(start)
		return rec
	}

	fi, err := os.Stat(path)
	if err != nil {
		rec.Status = StatusUnreadable
		rec.Failure = &Failure{Kind: FailureDecode, Err: fmt.Errorf("stat: %w", err)}
		rec.Elapsed = time.Since(start)
		return rec
	}
	rec.SizeBefore = fi.Size()

	if opts.Backup {
		already, err := backupFile(path, opts)
		switch {
		case err != nil:
			// Recorded but not terminal: compression is still attempted.
			rec.Failure = &Failure{Kind: FailureBackup, Err: err}
		case already:
			rec.Status = StatusSkippedBackedUp
			rec.SizeAfter = rec.SizeBefore
			rec.Elapsed = time.Since(start)
			return rec
		}
	}

	size, err := codec.Recompress(path, opts.Quality)
	if err != nil {
		kind := FailureEncode
		rec.Status = StatusCompressionError
		if errors.Is(err, codec.ErrDecode) {
			kind = FailureDecode
			rec.Status = StatusUnreadable
		}
		if rec.Failure != nil {
			err = errors.Join(rec.Failure.Err, err)
		}
		rec.Failure = &Failure{Kind: kind, Err: err}
		rec.Elapsed = time.Since(start)
		return rec
	}

	rec.SizeAfter = size
	rec.Status = StatusCompressed
	rec.Elapsed = time.Since(start)
	return rec
}
