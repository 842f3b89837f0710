package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FS stores assets on the local disk below Root.
type FS struct {
	Root string
}

// NewFS returns an FS rooted at root, creating it when missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("assets: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create root: %w", err)
	}
	return &FS{Root: abs}, nil
}

func (s *FS) resolve(name string) (string, error) {
	clean, err := Clean(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

// MkdirAll creates dir and its parents; an existing dir is not an error.
func (s *FS) MkdirAll(dir string) error {
	p, err := s.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return fmt.Errorf("assets: mkdir %s: %w", dir, err)
	}
	return nil
}

// Create truncates or creates name. Its directory must exist.
func (s *FS) Create(name string) (io.WriteCloser, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, wrapNotExist(name, err)
	}
	return f, nil
}

// Open opens name for reading.
func (s *FS) Open(name string) (io.ReadCloser, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, wrapNotExist(name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("assets: %s: %w", name, ErrNotExist)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, wrapNotExist(name, err)
	}
	return f, nil
}

// ReadDir lists the regular files of dir in name order.
func (s *FS) ReadDir(dir string) ([]string, error) {
	p, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, wrapNotExist(dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RemoveAll deletes dir recursively. A missing dir is not an error.
func (s *FS) RemoveAll(dir string) error {
	p, err := s.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("assets: remove %s: %w", dir, err)
	}
	return nil
}

func wrapNotExist(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("assets: %s: %w", name, ErrNotExist)
	}
	return fmt.Errorf("assets: %s: %w", name, err)
}
