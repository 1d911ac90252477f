package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSystemLoader serves templates from one or more directories,
// searched in order. Template names use forward slashes regardless of
// the host OS, and names that would escape the search roots are
// rejected as not found.
type FileSystemLoader struct {
	searchPaths []string
}

// NewFileSystemLoader creates a loader over the given directories.
func NewFileSystemLoader(searchPaths ...string) *FileSystemLoader {
	paths := make([]string, 0, len(searchPaths))
	for _, p := range searchPaths {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return &FileSystemLoader{searchPaths: paths}
}

// GetSource reads the named template from the first search path that
// contains it. The returned UpToDate predicate compares the file's
// modification time against the one captured here, so it stays cheap.
func (l *FileSystemLoader) GetSource(name string) (*Source, error) {
	rel, ok := splitTemplatePath(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	for _, root := range l.searchPaths {
		filename := filepath.Join(root, rel)

		data, err := os.ReadFile(filename)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read template %q: %w", name, err)
		}

		info, err := os.Stat(filename)
		if err != nil {
			return nil, fmt.Errorf("stat template %q: %w", name, err)
		}
		mtime := info.ModTime()

		return &Source{
			Text:     string(data),
			Filename: filename,
			UpToDate: func() bool {
				cur, err := os.Stat(filename)
				return err == nil && cur.ModTime().Equal(mtime)
			},
		}, nil
	}

	return nil, &NotFoundError{Name: name}
}

// ListTemplates walks every search path and returns the union of all
// relative file paths, slash-separated and sorted.
func (l *FileSystemLoader) ListTemplates() ([]string, error) {
	seen := make(map[string]bool)

	for _, root := range l.searchPaths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			seen[filepath.ToSlash(rel)] = true
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("list templates in %q: %w", root, err)
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// splitTemplatePath converts a slash-separated template name into a safe
// OS-relative path. Absolute names and any ".." segment are rejected.
func splitTemplatePath(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "/") {
		return "", false
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", false
		}
	}
	return filepath.Join(parts...), true
}
