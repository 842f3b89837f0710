// Package upload holds the multipart middlewares that put product assets on
// the Asset Store and thumbnails in memory before the handler runs.
package upload

import (
	"context"
	"errors"
	"net/http"

	"github.com/catalog3d/catalog/internal/platform/httpx"
)

// Client-facing rejection messages.
const (
	MsgNotImage        = "Please upload an image"
	MsgTooLarge        = "File too large"
	MsgUnexpectedField = "Unexpected field"
	MsgNotMultipart    = "Expected a multipart/form-data body"
	MsgMalformed       = "Malformed multipart body"
	MsgInvalidFilename = "Invalid file name"
	MsgStorageFailed   = "Upload failed"
)

// File describes one part written to the Asset Store.
type File struct {
	Field    string `json:"field"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// ImageFile is an in-memory upload accepted by the Image middleware.
type ImageFile struct {
	Filename string
	Data     []byte
}

// Observer receives the size of every stored upload.
type Observer interface {
	ObserveUpload(kind string, bytes int64)
}

type ctxKey int

const (
	filesKey ctxKey = iota
	imageKey
)

// FilesFromContext returns the files stored by Disk, in upload order.
func FilesFromContext(ctx context.Context) []File {
	files, _ := ctx.Value(filesKey).([]File)
	return files
}

// ImageFromContext returns the image accepted by Image.
func ImageFromContext(ctx context.Context) (ImageFile, bool) {
	img, ok := ctx.Value(imageKey).(ImageFile)
	return img, ok
}

// WithFiles attaches files to ctx.
func WithFiles(ctx context.Context, files []File) context.Context {
	return context.WithValue(ctx, filesKey, files)
}

// WithImage attaches img to ctx.
func WithImage(ctx context.Context, img ImageFile) context.Context {
	return context.WithValue(ctx, imageKey, img)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func reject(w http.ResponseWriter, msg string) {
	httpx.Error(w, http.StatusBadRequest, msg)
}
