package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrBadFilename  = errors.New("invalid filename")
	ErrExists       = errors.New("file already exists")
	ErrNotFound     = errors.New("file not found")
	ErrOutsideRoot  = errors.New("path escapes the storage root")
	ErrUnauthorized = errors.New("unauthorized")
)

// CleanFilename returns the base name of filename. It rejects names which could address another directory or a hidden file.
func CleanFilename(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if strings.ContainsAny(filename, "/\\\x00") {
		return "", fmt.Errorf("%w: %q contains a slash", ErrBadFilename, filename)
	}
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: filename is empty", ErrBadFilename)
	}
	if strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q begins with a dot", ErrBadFilename, filename)
	}
	return filename, nil
}

// SafeJoin joins root and elems like filepath.Join, but fails if the result is not inside root.
func SafeJoin(root string, elems ...string) (string, error) {
	root = filepath.Clean(root)
	var joined = filepath.Join(append([]string{root}, elems...)...)
	rel, err := filepath.Rel(root, joined)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrOutsideRoot
	}
	return joined, nil
}
