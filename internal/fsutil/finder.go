// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files
// ending with one of the given extensions. It returns their full paths in
// lexical order. A root that does not exist yields no files.
func FindFilesByExtension(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FindInRoots runs FindFilesByExtension over several roots and concatenates
// the results in root order.
func FindInRoots(roots []string, extensions ...string) ([]string, error) {
	var files []string
	for _, root := range roots {
		found, err := FindFilesByExtension(root, extensions...)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}
