package hostfs

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("invalid host path")

// Abs maps an absolute host path (e.g. /etc) into root (e.g. /host/etc).
// An empty root returns the cleaned path unchanged.
func Abs(root, abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	if root == "" {
		return clean, nil
	}
	if !strings.HasPrefix(root, "/") {
		return "", ErrInvalidPath
	}
	return filepath.Join(root, strings.TrimPrefix(clean, "/")), nil
}
