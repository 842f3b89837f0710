package products

import (
	"strings"
	"time"
)

// Product is a catalog item. Image holds a PNG thumbnail; ModelPath points
// at the model entry point on the Asset Store.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" validate:"gte=0"`
	CategoryID  string    `json:"categoryId" validate:"required"`
	Color       string    `json:"color"`
	Width       float64   `json:"width" validate:"gte=0"`
	Height      float64   `json:"height" validate:"gte=0"`
	Depth       float64   `json:"depth" validate:"gte=0"`
	Image       []byte    `json:"image,omitempty"`
	ModelPath   string    `json:"model_path"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListFilter narrows List. Zero Skip and Limit mean no skip and no limit.
type ListFilter struct {
	Skip       int
	Limit      int
	CategoryID *string
}

// Texture is a file in a product's textures directory.
type Texture struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NormalizeModelPath converts any path separator to "/" and adds a leading
// "/". An empty path stays empty.
func NormalizeModelPath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
