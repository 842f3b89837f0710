package upload

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

// multipartSlack covers boundaries and headers around the file part.
const multipartSlack = 64 << 10

// ImageOptions configures Image.
type ImageOptions struct {
	Field      string
	MaxBytes   int64
	Extensions []string
	Observer   Observer
}

// DefaultImageExtensions are matched case-sensitively against the end of
// the client filename.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png"}

// Image buffers the single part named opts.Field. Files whose name does not
// end in an accepted extension, or that exceed MaxBytes, are rejected before
// the handler runs.
func Image(opts ImageOptions) func(http.Handler) http.Handler {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes+multipartSlack)
			mr, err := r.MultipartReader()
			if err != nil {
				reject(w, MsgNotImage)
				return
			}

			var img *ImageFile
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
				if part.FormName() != opts.Field || img != nil {
					_ = part.Close()
					reject(w, MsgUnexpectedField)
					return
				}
				if !hasExtension(part.FileName(), exts) {
					_ = part.Close()
					reject(w, MsgNotImage)
					return
				}
				var buf bytes.Buffer
				n, err := io.Copy(&buf, io.LimitReader(part, opts.MaxBytes+1))
				_ = part.Close()
				if err != nil {
					if isTooLarge(err) {
						reject(w, MsgTooLarge)
					} else {
						reject(w, MsgMalformed)
					}
					return
				}
				if n > opts.MaxBytes {
					reject(w, MsgTooLarge)
					return
				}
				img = &ImageFile{Filename: part.FileName(), Data: buf.Bytes()}
			}
			if img == nil {
				reject(w, MsgNotImage)
				return
			}
			if opts.Observer != nil {
				opts.Observer.ObserveUpload("image", int64(len(img.Data)))
			}

			next.ServeHTTP(w, r.WithContext(WithImage(r.Context(), *img)))
		})
	}
}

func hasExtension(filename string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}
