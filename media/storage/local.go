// Package storage removes attachment files from the site's uploads storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/mediasweep/media/domain"
)

var _ domain.FileStore = (*Local)(nil)

// ErrUnsafePath is returned for paths that would resolve outside the uploads root
var ErrUnsafePath = errors.New("path escapes uploads directory")

// Local removes files from an uploads directory on the local filesystem
type Local struct {
	root string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads directory is required")
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads directory: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open uploads directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("uploads path %s is not a directory", root)
	}

	return &Local{root: root}, nil
}

// Remove deletes relPath below the uploads root. A file that is already gone is not an error.
func (l *Local) Remove(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := l.resolve(relPath)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", relPath, err)
	}

	return nil
}

func (l *Local) resolve(relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) || strings.HasPrefix(relPath, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, relPath)
	}

	path := filepath.Join(l.root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, relPath)
	}

	return path, nil
}
