package products

import (
	"github.com/catalog3d/catalog/internal/imaging"
	"github.com/catalog3d/catalog/internal/upload"
)

// DefaultUpdatableFields is the PATCH allowlist. image and model_path are
// accepted even though dedicated endpoints manage them.
var DefaultUpdatableFields = []string{
	"name",
	"description",
	"price",
	"categoryId",
	"image",
	"color",
	"width",
	"height",
	"depth",
	"model_path",
}

// Options carries the contract constants of the product endpoints.
type Options struct {
	UpdatableFields   []string
	ImageExtensions   []string
	ImageMaxBytes     int64
	ModelMaxBytes     int64
	ThumbnailSize     int
	PublicPath        string
	EntryPoint        string
	CascadeDelete     bool
	CountZeroNotFound bool
	UploadRateLimit   int
}

// DefaultOptions mirrors the public API as deployed.
func DefaultOptions() Options {
	return Options{
		UpdatableFields:   DefaultUpdatableFields,
		ImageExtensions:   upload.DefaultImageExtensions,
		ImageMaxBytes:     1_000_000,
		ModelMaxBytes:     50 << 20,
		ThumbnailSize:     imaging.DefaultSize,
		PublicPath:        "/uploads",
		EntryPoint:        "scene.gltf",
		CountZeroNotFound: true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UpdatableFields == nil {
		o.UpdatableFields = d.UpdatableFields
	}
	if len(o.ImageExtensions) == 0 {
		o.ImageExtensions = d.ImageExtensions
	}
	if o.ImageMaxBytes <= 0 {
		o.ImageMaxBytes = d.ImageMaxBytes
	}
	if o.ModelMaxBytes <= 0 {
		o.ModelMaxBytes = d.ModelMaxBytes
	}
	if o.ThumbnailSize <= 0 {
		o.ThumbnailSize = d.ThumbnailSize
	}
	if o.PublicPath == "" {
		o.PublicPath = d.PublicPath
	}
	if o.EntryPoint == "" {
		o.EntryPoint = d.EntryPoint
	}
	return o
}
