package storage

import (
	"fmt"
	"os"
	"path/filepath"

	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

// Workspace is a private temporary directory for one run. Close removes it
// along with everything written into it.
type Workspace struct {
	dir string
}

// NewWorkspace creates a workspace under base, or under os.TempDir() when base is empty.
func NewWorkspace(base string) (*Workspace, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o700); err != nil {
			return nil, spliceerrors.FileSystemError(fmt.Sprintf("failed to create work dir %s", base), err)
		}
	}

	dir, err := os.MkdirTemp(base, "snapsplice-*")
	if err != nil {
		return nil, spliceerrors.FileSystemError("failed to create temporary workspace", err)
	}

	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns a file path inside the workspace. Only the base name of name
// is used, so object keys with prefixes stay inside the directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// WriteFile writes data to name inside the workspace and returns its path
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := writeAtomic(path, data, 0o600); err != nil {
		return "", spliceerrors.FileSystemError(fmt.Sprintf("failed to write %s", path), err)
	}
	return path, nil
}

// ReadFile reads name from the workspace
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	path := w.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, spliceerrors.FileSystemError(fmt.Sprintf("failed to read %s", path), err)
	}
	return data, nil
}

// Close removes the workspace directory
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return spliceerrors.FileSystemError(fmt.Sprintf("failed to remove workspace %s", w.dir), err)
	}
	return nil
}
