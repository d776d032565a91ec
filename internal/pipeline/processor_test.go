package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func testImage() image.Image {
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, 96, 96))
	for y := 0; y < 96; y++ {
		for x := 0; x < 96; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func writeJPEG(t *testing.T, path string, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), &jpeg.Options{Quality: quality}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testOptions(root string) *Options {
	opts := DefaultOptions()
	opts.Root = root
	opts.Backup = false
	opts.MaxThreads = 1
	return opts
}

func TestProcessSkipByName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo_skip.jpg")
	if err := os.WriteFile(path, []byte("content does not matter"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := testOptions(dir)
	opts.Backup = true // must still be skipped before any backup I/O

	got := processFile(path, opts)
	if got.Status != StatusSkippedByName {
		t.Fatalf("status = %v, want SkippedByName", got.Status)
	}
	if got.SizeBefore == 0 {
		t.Error("SizeBefore should come from a stat")
	}
	if got.SizeAfter != 0 {
		t.Error("SizeAfter must stay unset for name-skips")
	}
	if got.Failure != nil {
		t.Errorf("unexpected failure: %v", got.Failure)
	}
	if _, err := os.Stat(filepath.Join(dir, opts.BackupFolder)); !os.IsNotExist(err) {
		t.Error("backup folder created for a name-skipped file")
	}
}

func TestProcessSkipByNameMissingFileRecordsFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone_skip.jpg")

	got := processFile(path, testOptions(dir))
	if got.Status != StatusSkippedByName {
		t.Fatalf("status = %v, want SkippedByName", got.Status)
	}
	if got.Failure == nil || got.Failure.Kind != FailureDecode {
		t.Errorf("stat failure not recorded: %+v", got.Failure)
	}
	if got.SizeBefore != 0 {
		t.Errorf("SizeBefore = %d for a missing file", got.SizeBefore)
	}
}

func TestProcessCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := processFile(path, testOptions(dir))
	if got.Status != StatusUnreadable {
		t.Fatalf("status = %v, want Unreadable", got.Status)
	}
	if got.SizeAfter != 0 {
		t.Error("SizeAfter must stay unset for unreadable files")
	}
	if got.Failure == nil || got.Failure.Kind != FailureDecode {
		t.Errorf("expected decode failure, got %+v", got.Failure)
	}
}

func TestProcessCompressWithBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")
	original := writeJPEG(t, path, 95)

	opts := testOptions(dir)
	opts.Backup = true
	opts.Quality = 10

	got := processFile(path, opts)
	if got.Status != StatusCompressed {
		t.Fatalf("status = %v (failure: %v), want Compressed", got.Status, got.Failure)
	}
	if got.Ext != ".jpg" {
		t.Errorf("Ext = %q", got.Ext)
	}
	if got.SizeAfter <= 0 || got.SizeAfter >= got.SizeBefore {
		t.Errorf("sizes not reduced: before %d after %d", got.SizeBefore, got.SizeAfter)
	}
	if got.Elapsed <= 0 {
		t.Error("Elapsed not measured")
	}

	backup := filepath.Join(dir, opts.BackupFolder, "img_original.jpg")
	saved, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if !bytes.Equal(saved, original) {
		t.Error("backup does not hold the original bytes")
	}
}

func TestProcessSecondRunSkipsBackedUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")
	writeJPEG(t, path, 95)

	opts := testOptions(dir)
	opts.Backup = true
	opts.Quality = 10

	first := processFile(path, opts)
	if first.Status != StatusCompressed {
		t.Fatalf("first run: %v", first.Status)
	}

	second := processFile(path, opts)
	if second.Status != StatusSkippedBackedUp {
		t.Fatalf("second run status = %v, want SkippedBackedUp", second.Status)
	}
	if second.SizeAfter != second.SizeBefore {
		t.Errorf("untouched file must report after == before, got %d != %d",
			second.SizeAfter, second.SizeBefore)
	}
}

func TestProcessZstdBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")
	original := writeJPEG(t, path, 95)

	opts := testOptions(dir)
	opts.Backup = true
	opts.ZstdBackups = true
	opts.Quality = 10

	got := processFile(path, opts)
	if got.Status != StatusCompressed {
		t.Fatalf("status = %v (failure: %v)", got.Status, got.Failure)
	}

	backup := filepath.Join(dir, opts.BackupFolder, "img_original.jpg.zst")
	f, err := os.Open(backup)
	if err != nil {
		t.Fatalf("zstd backup missing: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	restored, err := io.ReadAll(dec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, original) {
		t.Error("decompressed backup does not match the original bytes")
	}
}

func TestProcessBackupFailureStillCompresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")
	writeJPEG(t, path, 95)

	opts := testOptions(dir)
	opts.Backup = true
	opts.Quality = 10
	// A regular file where the backup folder should go makes MkdirAll fail.
	if err := os.WriteFile(filepath.Join(dir, opts.BackupFolder), []byte("in the way"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := processFile(path, opts)
	if got.Status != StatusCompressed {
		t.Fatalf("status = %v, want Compressed despite backup failure", got.Status)
	}
	if got.Failure == nil || got.Failure.Kind != FailureBackup {
		t.Errorf("expected recorded backup failure, got %+v", got.Failure)
	}
}
