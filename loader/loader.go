// Package loader reads effect sources and resolves include paths.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Resolve when no candidate path exists.
var ErrNotFound = errors.New("file not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is a fully loaded source file.
type File struct {
	Path string
	Data []byte

	// Size is the number of bytes actually read, which can be smaller than
	// the size reported by the file system.
	Size int
}

// String returns the file contents as text.
func (f *File) String() string {
	return string(f.Data)
}

// Loader loads files and resolves include names against search directories.
type Loader struct {
	SearchDirs []string
}

// New creates a loader with the given search directories.
func New(searchDirs ...string) *Loader {
	return &Loader{SearchDirs: searchDirs}
}

// Load reads path fully into memory. A leading UTF-8 byte order mark is
// dropped.
func (l *Loader) Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()

	return Read(path, f)
}

// Read loads a file from an already opened reader.
func Read(path string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	return &File{Path: path, Data: data, Size: len(data)}, nil
}

// Resolve finds an include name. Absolute names are used as is. Relative
// names are tried against relativeTo first (normally the including file's
// directory, may be empty), then against each search directory in order.
func (l *Loader) Resolve(name, relativeTo string) (string, error) {
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	candidates := make([]string, 0, len(l.SearchDirs)+1)
	if relativeTo != "" {
		candidates = append(candidates, filepath.Join(relativeTo, name))
	}
	for _, dir := range l.SearchDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	if relativeTo == "" && len(l.SearchDirs) == 0 {
		candidates = append(candidates, name)
	}

	for _, c := range candidates {
		if isFile(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
