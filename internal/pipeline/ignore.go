package pipeline

import (
	"io/fs"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

const ignoreFileName = ".imgshrinkignore"

// ignoreMatcher excludes paths matched by .imgshrinkignore files
// (gitignore syntax). Files anywhere in the tree apply to their own
// subtree; a nil matcher matches nothing.
type ignoreMatcher struct {
	matchers map[string]*ignore.GitIgnore // keyed by dir relative to root, "" = root
}

// newIgnoreMatcher pre-scans the tree for .imgshrinkignore files and
// compiles them. Returns nil when none exist so discovery can skip the
// matching entirely.
func newIgnoreMatcher(root string) *ignoreMatcher {
	m := &ignoreMatcher{matchers: make(map[string]*ignore.GitIgnore)}

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != ignoreFileName {
			return nil
		}
		relDir, rerr := filepath.Rel(root, filepath.Dir(path))
		if rerr != nil {
			return nil
		}
		if relDir == "." {
			relDir = ""
		}
		compiled, cerr := ignore.CompileIgnoreFile(path)
		if cerr != nil {
			// A malformed ignore file excludes nothing.
			return nil
		}
		m.matchers[relDir] = compiled
		return nil
	})

	if len(m.matchers) == 0 {
		return nil
	}
	return m
}

// shouldIgnore checks relPath (relative to root) against every ignore
// file on its directory chain, root first.
func (m *ignoreMatcher) shouldIgnore(relPath string) bool {
	if m == nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	for dir, matcher := range m.matchers {
		var pathToCheck string
		if dir == "" {
			pathToCheck = relPath
		} else {
			prefix := filepath.ToSlash(dir) + "/"
			if !strings.HasPrefix(relPath, prefix) {
				continue
			}
			pathToCheck = strings.TrimPrefix(relPath, prefix)
		}
		if matcher.MatchesPath(pathToCheck) {
			return true
		}
	}
	return false
}
