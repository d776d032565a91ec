package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// backupFile preserves the original bytes of path under the configured
// backup folder, as a plain copy or a zstd stream. It reports
// alreadyBackedUp=true when the target already exists: a prior run
// handled this file and it must not be compressed again. Fresh backups
// are verified by content hash before the original may be mutated.
func backupFile(path string, opts *Options) (alreadyBackedUp bool, err error) {
	backupDir := filepath.Join(filepath.Dir(path), opts.BackupFolder)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return false, fmt.Errorf("create backup folder: %w", err)
	}

	target := filepath.Join(backupDir, opts.policy().BackupName(filepath.Base(path)))
	if opts.ZstdBackups {
		target += ".zst"
	}

	if _, serr := os.Stat(target); serr == nil {
		return true, nil
	}

	copyFn := plainCopy
	if opts.ZstdBackups {
		copyFn = compressCopy
	}
	if err := writeBackup(path, target, copyFn); err != nil {
		return false, err
	}

	same, err := sameContent(path, target, opts.ZstdBackups)
	if err == nil && !same {
		err = fmt.Errorf("backup %q does not match original", filepath.Base(target))
	}
	if err != nil {
		// A backup that cannot be verified must not shadow future runs.
		os.Remove(target)
		return false, err
	}
	return false, nil
}

// writeBackup streams src into target through a temp file and a rename,
// so a crash mid-copy never leaves a half-written backup behind.
func writeBackup(src, target string, copyFn func(io.Writer, io.Reader) error) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open original: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".imgshrink-backup-*")
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	tmpPath := tmp.Name()

	if err := copyFn(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

func plainCopy(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

func compressCopy(dst io.Writer, src io.Reader) error {
	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// sameContent compares the original with a backup by blake3 hash,
// decompressing the backup first when it is a zstd stream.
func sameContent(src, backup string, zstdBackup bool) (bool, error) {
	srcSum, err := hashFile(src, false)
	if err != nil {
		return false, err
	}
	bakSum, err := hashFile(backup, zstdBackup)
	if err != nil {
		return false, err
	}
	return bytes.Equal(srcSum, bakSum), nil
}

func hashFile(path string, zstdCompressed bool) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var r io.Reader = f
	if zstdCompressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", filepath.Base(path), err)
		}
		defer dec.Close()
		r = dec
	}

	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return h.Sum(nil), nil
}
