package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/expense-ocr/internal/extract"
)

// LoadDirectory walks root in lexical order and reads every regular file into a
// Document named by its slash-separated path relative to root. Files of unsupported
// types are included so they still produce a row. Paths listed in exclude (the
// tool's own outputs) are skipped.
func LoadDirectory(root string, skipHidden bool, exclude ...string) ([]extract.Document, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	skip := newPathSet(exclude)

	var docs []extract.Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		// skip hidden dirs/files if requested, never the root itself
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || skip.has(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		docs = append(docs, extract.Document{Name: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return docs, nil
}

// LoadPaths reads each path in the given order; documents are named by base name.
func LoadPaths(paths []string) ([]extract.Document, error) {
	docs := make([]extract.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := ReadDocument(p, filepath.Base(p))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadDocument reads path into a Document called name.
func ReadDocument(path, name string) (extract.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return extract.Document{}, err
	}
	if info.IsDir() {
		return extract.Document{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Document{}, err
	}
	return extract.Document{Name: name, Data: data}, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// pathSet matches paths by their cleaned absolute form, so "./out.xlsx" and
// "/work/out.xlsx" are the same entry.
type pathSet map[string]struct{}

func newPathSet(paths []string) pathSet {
	set := make(pathSet, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		set[absPath(p)] = struct{}{}
	}
	return set
}

func (s pathSet) has(path string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[absPath(path)]
	return ok
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
