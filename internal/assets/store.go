// Package assets is the storage port for per-product binary bundles: the 3D
// model files under {root}/{productId}/ and the texture images under
// {root}/{productId}/textures/.
package assets

import (
	"errors"
	"io"
	"path"
	"strings"
)

const (
	// TexturesDir is the per-product subdirectory holding texture images.
	TexturesDir = "textures"
	// EntryPoint is the model bundle file a viewer loads first.
	EntryPoint = "scene.gltf"
)

var (
	// ErrNotExist reports a missing file or directory.
	ErrNotExist = errors.New("asset does not exist")
	// ErrInvalidName reports a name that would escape its directory.
	ErrInvalidName = errors.New("invalid asset name")
)

// Store is implemented by FS and by assetstest.Store. Names are
// slash-separated and relative to the store root.
type Store interface {
	MkdirAll(dir string) error
	Create(name string) (io.WriteCloser, error)
	Open(name string) (io.ReadCloser, error)
	ReadDir(dir string) ([]string, error)
	RemoveAll(dir string) error
}

// Prepare creates a model folder and the textures directory of the product
// owning it. folder is a product id or a bundle nested under one.
func Prepare(s Store, folder string) error {
	if _, err := Clean(folder); err != nil {
		return err
	}
	if err := s.MkdirAll(folder); err != nil {
		return err
	}
	product, _, _ := strings.Cut(folder, "/")
	return s.MkdirAll(TextureDir(product))
}

// ValidName accepts a single path element: no separators, not "." or "..".
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}

// Clean validates a relative slash path made of valid elements.
func Clean(name string) (string, error) {
	if name == "" || path.IsAbs(name) {
		return "", ErrInvalidName
	}
	for _, elem := range strings.Split(name, "/") {
		if err := ValidName(elem); err != nil {
			return "", err
		}
	}
	return name, nil
}

// ModelDir is the folder holding a product's bundle.
func ModelDir(productID string) string {
	return productID
}

// BundleDir is the folder of a named bundle inside the product's directory.
// An empty name is the product directory itself.
func BundleDir(productID, name string) string {
	if name == "" {
		return ModelDir(productID)
	}
	return path.Join(ModelDir(productID), name)
}

// TextureDir is the folder holding a product's textures.
func TextureDir(productID string) string {
	return path.Join(productID, TexturesDir)
}

// URLPath joins a public prefix with relative asset elements using forward
// slashes and a leading "/".
func URLPath(prefix string, elems ...string) string {
	parts := append([]string{"/", prefix}, elems...)
	return path.Join(parts...)
}
