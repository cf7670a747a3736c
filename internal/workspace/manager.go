package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pdfchat/internal/domain"
)

const dirPattern = "pdfchat-*"

// Manager allocates and discards the temporary directories that back a
// session's vector store. It keeps no state besides the parent directory.
type Manager struct {
	root string
}

// NewManager creates a manager that allocates under root, or the OS temp dir when root is empty.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Allocate creates a new empty directory with a unique name and returns its path.
func (m *Manager) Allocate() (string, error) {
	if m.root != "" {
		if err := os.MkdirAll(m.root, 0o755); err != nil {
			return "", fmt.Errorf("%w: create workspace root %s: %v", domain.ErrFilesystem, m.root, err)
		}
	}
	dir, err := os.MkdirTemp(m.root, dirPattern)
	if err != nil {
		return "", fmt.Errorf("%w: allocate workspace: %v", domain.ErrFilesystem, err)
	}
	return dir, nil
}

// Discard removes the directory tree at path. A path that no longer exists is skipped.
func (m *Manager) Discard(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: stat workspace %s: %v", domain.ErrFilesystem, path, err)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("%w: remove workspace %s: %v", domain.ErrFilesystem, path, err)
	}
	return nil
}
