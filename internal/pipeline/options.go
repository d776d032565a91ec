package pipeline

import (
	"runtime"

	"github.com/hsuyc/imgshrink/internal/naming"
)

// Options configures a batch run.
type Options struct {
	// Root directory whose images are processed.
	Root string

	// Quality is the lossy compression quality (1-100).
	// Default: 85
	Quality int

	// Backup copies each original into BackupFolder before compressing.
	// Default: true (set by DefaultOptions)
	Backup bool

	// BackupFolder is the per-directory folder name for backups.
	// Default: "original image"
	BackupFolder string

	// OriginalSuffix is appended to backup filenames before the extension.
	// Default: "_original"
	OriginalSuffix string

	// SkipSuffix marks files the batch must leave untouched.
	// Default: "_skip"
	SkipSuffix string

	// SkipOriginal skips files already carrying OriginalSuffix.
	// Default: true
	SkipOriginal bool

	// SkipSkip skips files carrying SkipSuffix.
	// Default: true
	SkipSkip bool

	// ZstdBackups stores backups as zstd streams instead of plain copies.
	// Default: false
	ZstdBackups bool

	// MaxThreads bounds the worker pool.
	// Default: runtime.NumCPU()
	MaxThreads int
}

// DefaultOptions returns options matching the tool's documented defaults.
func DefaultOptions() *Options {
	return &Options{
		Quality:        85,
		Backup:         true,
		BackupFolder:   "original image",
		OriginalSuffix: "_original",
		SkipSuffix:     "_skip",
		SkipOriginal:   true,
		SkipSkip:       true,
		MaxThreads:     runtime.NumCPU(),
	}
}

// Validate normalizes defaults and rejects invalid settings. It must pass
// before the run starts; the core never re-validates.
func (o *Options) Validate() error {
	if o.Root == "" {
		return ErrRootRequired
	}
	if o.Quality < 1 || o.Quality > 100 {
		return ErrInvalidQuality
	}
	if o.BackupFolder == "" {
		o.BackupFolder = "original image"
	}
	if o.OriginalSuffix == "" {
		o.OriginalSuffix = "_original"
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	return nil
}

func (o *Options) policy() naming.Policy {
	return naming.Policy{
		OriginalSuffix: o.OriginalSuffix,
		SkipSuffix:     o.SkipSuffix,
		SkipOriginal:   o.SkipOriginal,
		SkipSkip:       o.SkipSkip,
	}
}
