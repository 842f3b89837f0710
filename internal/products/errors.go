package products

import (
	"github.com/catalog3d/catalog/internal/platform/httpx"
)

var (
	ErrNotFound        = httpx.Errorf(httpx.ErrNotFound, "Product not found")
	ErrImageNotFound   = httpx.Errorf(httpx.ErrNotFound, "Image not found")
	ErrTextureNotFound = httpx.Errorf(httpx.ErrNotFound, "Texture not found")
	ErrInvalidUpdates  = httpx.Errorf(httpx.ErrValidation, "Invalid updates!")
	ErrNoModelFiles    = httpx.Errorf(httpx.ErrValidation, "No model files uploaded")
	ErrInvalidBody     = httpx.Errorf(httpx.ErrValidation, "Request body must be a JSON object")
	ErrBodyTooLarge    = httpx.Errorf(httpx.ErrTooLarge, "Request body too large")
	ErrInvalidImage    = httpx.Errorf(httpx.ErrValidation, "Unable to process image")
	ErrSaveFailed      = httpx.Errorf(httpx.ErrValidation, "Unable to save product")
	ErrNoProducts      = httpx.Errorf(httpx.ErrNotFound, "No products found")
)
