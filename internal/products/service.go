package products

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/catalog3d/catalog/internal/assets"
	"github.com/catalog3d/catalog/internal/imaging"
	"github.com/catalog3d/catalog/internal/upload"
)

// AssetPurger removes a product's asset directory out of band.
type AssetPurger interface {
	EnqueueAssetPurge(ctx context.Context, productID string) error
}

// Service implements the product and asset workflows.
type Service struct {
	repo      Repository
	store     assets.Store
	cache     *Cache
	purger    AssetPurger
	opts      Options
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService wires a product service. cache and purger may be nil.
func NewService(repo Repository, store assets.Store, cache *Cache, purger AssetPurger, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		store:     store,
		cache:     cache,
		purger:    purger,
		opts:      opts.withDefaults(),
		logger:    logger,
		validator: newValidator(),
	}
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// Create persists a product decoded from body. categoryID always wins over
// a categoryId in the body.
func (s *Service) Create(ctx context.Context, categoryID string, body []byte) (Product, error) {
	var p Product
	if err := decodeFields(body, &p); err != nil {
		return Product{}, err
	}
	p.ID = ""
	p.CategoryID = categoryID
	if err := s.normalize(&p, true); err != nil {
		return Product{}, err
	}
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.logger.Error("create product", slog.String("categoryId", categoryID), slog.Any("error", err))
		return Product{}, ErrSaveFailed
	}
	s.invalidate(ctx)
	return created, nil
}

// List returns one page in natural order.
func (s *Service) List(ctx context.Context, skip, limit int) ([]Product, error) {
	filter := ListFilter{Skip: max(skip, 0), Limit: max(limit, 0)}
	return fetch(ctx, s.cache, func(ctx context.Context) ([]Product, error) {
		return s.repo.List(ctx, filter)
	}, keyPage(filter)...)
}

// ListAll returns every product. An empty catalog is an empty slice.
func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	return fetch(ctx, s.cache, func(ctx context.Context) ([]Product, error) {
		return s.repo.List(ctx, ListFilter{})
	}, keyAll()...)
}

// ListByCategory returns the products whose categoryId equals categoryID.
func (s *Service) ListByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	return fetch(ctx, s.cache, func(ctx context.Context) ([]Product, error) {
		return s.repo.List(ctx, ListFilter{CategoryID: &categoryID})
	}, keyCategory(categoryID)...)
}

// Get returns one product or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return fetch(ctx, s.cache, func(ctx context.Context) (Product, error) {
		return s.repo.Get(ctx, id)
	}, keyProduct(id)...)
}

// Exists reports ErrNotFound for an unknown id.
func (s *Service) Exists(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

// Count returns the number of products. Zero is ErrNoProducts when
// CountZeroNotFound is set.
func (s *Service) Count(ctx context.Context) (int64, error) {
	total, err := fetch(ctx, s.cache, s.repo.Count, keyCount()...)
	if err != nil {
		return 0, err
	}
	if total == 0 && s.opts.CountZeroNotFound {
		return 0, ErrNoProducts
	}
	return total, nil
}

// Update applies a partial update. Any key outside the allowlist rejects the
// whole body; otherwise only the provided keys change.
func (s *Service) Update(ctx context.Context, id string, body []byte) (Product, error) {
	updates, err := checkUpdates(body, s.opts.UpdatableFields)
	if err != nil {
		return Product{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Product{}, err
	}
	if err != nil {
		s.logger.Error("load product for update", slog.String("id", id), slog.Any("error", err))
		return Product{}, ErrSaveFailed
	}
	if err := decodeFields(body, &current); err != nil {
		return Product{}, err
	}
	current.ID = id
	_, imageSet := updates["image"]
	if err := s.normalize(&current, imageSet); err != nil {
		return Product{}, err
	}
	if err := s.validate(current); err != nil {
		return Product{}, err
	}
	saved, err := s.save(ctx, current)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Product{}, ErrSaveFailed
	}
	return saved, err
}

// Delete removes the record. The asset directory is purged only when
// CascadeDelete is set.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	if s.opts.CascadeDelete {
		if err := s.purge(ctx, id); err != nil {
			s.logger.Warn("purge product assets", slog.String("id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *Service) purge(ctx context.Context, id string) error {
	if err := assets.ValidName(id); err != nil {
		return err
	}
	if s.purger != nil {
		return s.purger.EnqueueAssetPurge(ctx, id)
	}
	return s.store.RemoveAll(assets.ModelDir(id))
}

// SetImage stores a size×size PNG thumbnail of raw.
func (s *Service) SetImage(ctx context.Context, id string, raw []byte) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	thumb, err := imaging.Thumbnail(raw, s.opts.ThumbnailSize)
	if err != nil {
		if errors.Is(err, imaging.ErrDecode) {
			return ErrInvalidImage
		}
		return err
	}
	p.Image = thumb
	_, err = s.save(ctx, p)
	return err
}

// ClearImage removes the thumbnail.
func (s *Service) ClearImage(ctx context.Context, id string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Image = nil
	_, err = s.save(ctx, p)
	return err
}

// Image returns the stored PNG thumbnail.
func (s *Service) Image(ctx context.Context, id string) ([]byte, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(p.Image) == 0 {
		return nil, ErrImageNotFound
	}
	return p.Image, nil
}

// AttachModel points model_path at the first stored file.
func (s *Service) AttachModel(ctx context.Context, id string, files []upload.File) (Product, error) {
	if len(files) == 0 {
		return Product{}, ErrNoModelFiles
	}
	if !strings.HasPrefix(files[0].Path, assets.ModelDir(id)+"/") {
		return Product{}, fmt.Errorf("products: model file %q outside %s", files[0].Path, assets.ModelDir(id))
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.ModelPath = NormalizeModelPath(assets.URLPath(s.opts.PublicPath, files[0].Path))
	return s.save(ctx, p)
}

// DetachModel clears model_path and removes the product's asset directory.
func (s *Service) DetachModel(ctx context.Context, id string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	p.ModelPath = ""
	if _, err := s.save(ctx, p); err != nil {
		return err
	}
	if err := assets.ValidName(id); err != nil {
		return fmt.Errorf("products: remove assets of %q: %w", id, err)
	}
	if err := s.store.RemoveAll(assets.ModelDir(id)); err != nil {
		return fmt.Errorf("products: remove assets of %s: %w", id, err)
	}
	return nil
}

// ModelURL returns the absolute URL of the product's model entry point: the
// entry point next to model_path when it lies in the product's directory,
// the directory root otherwise.
func (s *Service) ModelURL(ctx context.Context, id, scheme, host string) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	root := assets.URLPath(s.opts.PublicPath, assets.ModelDir(id))
	dir := root
	if strings.HasPrefix(p.ModelPath, root+"/") {
		dir = path.Dir(p.ModelPath)
	}
	return scheme + "://" + host + path.Join(dir, s.opts.EntryPoint), nil
}

// Texture reads one texture file. Every failure is ErrTextureNotFound.
func (s *Service) Texture(ctx context.Context, id, name string) ([]byte, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, ErrTextureNotFound
	}
	if assets.ValidName(id) != nil || assets.ValidName(name) != nil {
		return nil, ErrTextureNotFound
	}
	f, err := s.store.Open(path.Join(assets.TextureDir(id), name))
	if err != nil {
		return nil, ErrTextureNotFound
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		s.logger.Warn("read texture", slog.String("id", id), slog.String("name", name), slog.Any("error", err))
		return nil, ErrTextureNotFound
	}
	return buf.Bytes(), nil
}

// Textures lists the files in the product's textures directory.
func (s *Service) Textures(ctx context.Context, id string) ([]Texture, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := assets.ValidName(id); err != nil {
		return nil, ErrNotFound
	}
	names, err := s.store.ReadDir(assets.TextureDir(id))
	if errors.Is(err, assets.ErrNotExist) {
		return []Texture{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("products: list textures of %s: %w", id, err)
	}
	textures := make([]Texture, 0, len(names))
	for _, name := range names {
		textures = append(textures, Texture{
			Name: name,
			URL:  assets.URLPath(s.opts.PublicPath, assets.TextureDir(id), name),
		})
	}
	return textures, nil
}

// normalize re-encodes a provided image as a thumbnail and fixes the
// separators of model_path.
func (s *Service) normalize(p *Product, imageSet bool) error {
	if imageSet && len(p.Image) > 0 {
		thumb, err := imaging.Thumbnail(p.Image, s.opts.ThumbnailSize)
		if err != nil {
			return ErrInvalidImage
		}
		p.Image = thumb
	}
	if len(p.Image) == 0 {
		p.Image = nil
	}
	p.ModelPath = NormalizeModelPath(p.ModelPath)
	return nil
}

func (s *Service) save(ctx context.Context, p Product) (Product, error) {
	saved, err := s.repo.Save(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		s.logger.Error("save product", slog.String("id", p.ID), slog.Any("error", err))
		return Product{}, err
	}
	s.invalidate(ctx)
	return saved, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump product cache", slog.Any("error", err))
	}
}
