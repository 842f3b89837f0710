// Package assetstest provides an in-memory assets.Store for tests.
package assetstest

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/catalog3d/catalog/internal/assets"
)

// Store keeps files and directories in maps. Errors can be injected per
// operation.
type Store struct {
	mu    sync.Mutex
	dirs  map[string]bool
	files map[string][]byte

	MkdirErr  error
	RemoveErr error
}

// New returns an empty Store.
func New() *Store {
	return &Store{dirs: map[string]bool{}, files: map[string][]byte{}}
}

var _ assets.Store = (*Store)(nil)

func (s *Store) MkdirAll(dir string) error {
	if _, err := assets.Clean(dir); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MkdirErr != nil {
		return s.MkdirErr
	}
	for p := dir; p != "." && p != "/"; p = path.Dir(p) {
		s.dirs[p] = true
	}
	return nil
}

func (s *Store) Create(name string) (io.WriteCloser, error) {
	if _, err := assets.Clean(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := path.Dir(name); dir != "." && !s.dirs[dir] {
		return nil, fmt.Errorf("assetstest: %s: %w", dir, assets.ErrNotExist)
	}
	return &writer{store: s, name: name}, nil
}

func (s *Store) Open(name string) (io.ReadCloser, error) {
	if _, err := assets.Clean(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("assetstest: %s: %w", name, assets.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) ReadDir(dir string) ([]string, error) {
	if _, err := assets.Clean(dir); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirs[dir] {
		return nil, fmt.Errorf("assetstest: %s: %w", dir, assets.ErrNotExist)
	}
	var names []string
	for name := range s.files {
		if path.Dir(name) == dir {
			names = append(names, path.Base(name))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) RemoveAll(dir string) error {
	if _, err := assets.Clean(dir); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	prefix := dir + "/"
	for name := range s.files {
		if strings.HasPrefix(name, prefix) {
			delete(s.files, name)
		}
	}
	for d := range s.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(s.dirs, d)
		}
	}
	return nil
}

// Exists reports whether a file or directory is present.
func (s *Store) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok || s.dirs[name]
}

// File returns the content of name.
func (s *Store) File(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Put writes name directly, creating its directories.
func (s *Store) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := path.Dir(name); p != "." && p != "/"; p = path.Dir(p) {
		s.dirs[p] = true
	}
	s.files[name] = append([]byte(nil), data...)
}

type writer struct {
	store *Store
	name  string
	buf   bytes.Buffer
}

func (w *writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *writer) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.files[w.name] = w.buf.Bytes()
	return nil
}
