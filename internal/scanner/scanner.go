// Package scanner provides markdown document discovery for directory roots.
//
// The scanner traverses a directory tree and collects every file whose
// extension marks it as a servable markdown document. Discovery runs once at
// startup to seed the document registry; afterwards the file watcher keeps
// the registry current, so the scanner stays deliberately stateless.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/mdserve/internal/watcher"
)

// FindDocuments walks root recursively and returns the absolute paths of all
// markdown documents beneath it, sorted lexicographically. Hidden directories
// are traversed like any other; the extension filter alone decides what
// qualifies. A root that is not a directory is an error.
func FindDocuments(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	var documents []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !watcher.IsDocument(path) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		documents = append(documents, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Strings(documents)
	return documents, nil
}
