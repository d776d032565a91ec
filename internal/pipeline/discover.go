package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// imageExtensions lists the lower-cased suffixes discovery considers
// images. Formats the codec cannot decode still get enumerated; they
// surface as unreadable records rather than silently vanishing.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
	".gif":  true,
	".avif": true,
	".heic": true,
}

// Discover walks root and returns the image files to process, in the
// walk's deterministic lexical order. Backup folders are pruned
// (case-insensitive name match) and .imgshrinkignore patterns are
// honored. Skip-suffixed files are NOT filtered here: the processor
// classifies them so they show up counted in the report.
func Discover(root, backupFolder string) ([]string, error) {
	matcher := newIgnoreMatcher(root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = d.Name()
		}

		if d.IsDir() {
			if path != root && strings.EqualFold(d.Name(), backupFolder) {
				return filepath.SkipDir
			}
			return nil
		}

		if !imageExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		if matcher.shouldIgnore(rel) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
