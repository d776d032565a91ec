// Package codec rewrites image files in place at a requested quality.
// It is deliberately a narrow primitive: decode, re-encode in the same
// format, atomically replace. Callers classify failures with [ErrDecode]
// and [ErrEncode].
package codec

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrDecode marks files the codec could not open or decode.
	ErrDecode = errors.New("cannot decode image")

	// ErrEncode marks failures after a successful decode: re-encode or write.
	ErrEncode = errors.New("cannot encode image")
)

// Recompress rewrites the image at path at the given quality (1-100) and
// returns the new byte size. The original format is preserved. The new
// bytes go through a temp file in the same directory followed by a
// rename, so a failed encode never corrupts the input.
func Recompress(path string, quality int) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".imgshrink-*"+filepath.Ext(path))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	tmpPath := tmp.Name()

	if err := encode(tmp, img, format, quality); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	if fi, err := os.Stat(path); err == nil {
		os.Chmod(tmpPath, fi.Mode())
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return fi.Size(), nil
}

func encode(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "png":
		enc := png.Encoder{CompressionLevel: pngLevel(quality)}
		return enc.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, &gif.Options{NumColors: 256})
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// pngLevel maps the lossy 1-100 quality scale onto png's lossless effort
// levels: png never discards pixels, so lower quality just buys a harder
// try at a smaller file.
func pngLevel(quality int) png.CompressionLevel {
	if quality <= 85 {
		return png.BestCompression
	}
	return png.DefaultCompression
}
