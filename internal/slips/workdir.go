package slips

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ScratchDir is a uniquely named working directory for intermediate slip
// files. Callers should Remove it when the run finishes.
type ScratchDir struct {
	path string
}

// NewScratchDir creates a unique directory under parent.
func NewScratchDir(parent string) (*ScratchDir, error) {
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create working directory parent: %w", err)
	}
	path := filepath.Join(parent, uuid.NewString())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}
	return &ScratchDir{path: path}, nil
}

func (d *ScratchDir) Path() string { return d.path }

// Clear deletes the directory's contents but keeps the directory.
func (d *ScratchDir) Clear() error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(d.path, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the directory and everything in it.
func (d *ScratchDir) Remove() error {
	return os.RemoveAll(d.path)
}
