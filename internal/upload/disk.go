package upload

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/catalog3d/catalog/internal/assets"
	"github.com/catalog3d/catalog/internal/platform/httpx"
)

// DirFunc resolves the destination directory of a request.
type DirFunc func(r *http.Request) string

// DiskOptions configures Disk.
type DiskOptions struct {
	Kind     string
	Field    string
	MaxBytes int64
	Store    assets.Store
	Dir      DirFunc
	// Prepare creates the destination; defaults to Store.MkdirAll.
	Prepare  func(store assets.Store, dir string) error
	Logger   *slog.Logger
	Observer Observer
}

// Disk streams every part named opts.Field into the directory returned by
// opts.Dir under its client filename. Existing files are overwritten.
func Disk(opts DiskOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prepare := opts.Prepare
	if prepare == nil {
		prepare = func(store assets.Store, dir string) error { return store.MkdirAll(dir) }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)

			dir := opts.Dir(r)
			if _, err := assets.Clean(dir); err != nil {
				reject(w, MsgInvalidFilename)
				return
			}
			mr, err := r.MultipartReader()
			if err != nil {
				reject(w, MsgNotMultipart)
				return
			}
			if err := prepare(opts.Store, dir); err != nil {
				logger.Error("prepare upload directory", slog.String("dir", dir), slog.Any("error", err))
				httpx.Error(w, http.StatusInternalServerError, MsgStorageFailed)
				return
			}

			var files []File
			for {
				part, err := mr.NextPart()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					if isTooLarge(err) {
						reject(w, MsgTooLarge)
					} else {
						reject(w, MsgMalformed)
					}
					return
				}
				if part.FileName() == "" {
					_ = part.Close()
					continue
				}
				if part.FormName() != opts.Field {
					_ = part.Close()
					reject(w, MsgUnexpectedField)
					return
				}
				file, status, msg := store(opts, dir, part, logger)
				_ = part.Close()
				if status != 0 {
					httpx.Error(w, status, msg)
					return
				}
				if opts.Observer != nil {
					opts.Observer.ObserveUpload(opts.Kind, file.Size)
				}
				files = append(files, file)
			}

			next.ServeHTTP(w, r.WithContext(WithFiles(r.Context(), files)))
		})
	}
}

func store(opts DiskOptions, dir string, part *multipart.Part, logger *slog.Logger) (File, int, string) {
	filename := part.FileName()
	if err := assets.ValidName(filename); err != nil {
		return File{}, http.StatusBadRequest, MsgInvalidFilename
	}
	name := path.Join(dir, filename)
	dst, err := opts.Store.Create(name)
	if err != nil {
		logger.Error("create upload file", slog.String("name", name), slog.Any("error", err))
		return File{}, http.StatusInternalServerError, MsgStorageFailed
	}
	n, copyErr := io.Copy(dst, part)
	closeErr := dst.Close()
	switch {
	case copyErr != nil && isTooLarge(copyErr):
		return File{}, http.StatusBadRequest, MsgTooLarge
	case copyErr != nil:
		return File{}, http.StatusBadRequest, MsgMalformed
	case closeErr != nil:
		logger.Error("close upload file", slog.String("name", name), slog.Any("error", closeErr))
		return File{}, http.StatusInternalServerError, MsgStorageFailed
	}
	return File{Field: opts.Field, Filename: filename, Path: name, Size: n}, 0, ""
}
