package images

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for references that escape the avatar root.
var ErrOutsideRoot = errors.New("avatar reference outside root")

// FileSource reads avatars from a directory on disk.
type FileSource struct {
	root string
}

// NewFileSource creates a FileSource rooted at root. Absolute references are
// read as-is when root is empty.
func NewFileSource(root string) *FileSource {
	return &FileSource{root: root}
}

// Read returns the file contents behind ref.
func (s *FileSource) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *FileSource) resolve(ref string) (string, error) {
	if s.root == "" {
		return filepath.Clean(ref), nil
	}
	path := filepath.Join(s.root, filepath.FromSlash(ref))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return path, nil
}
