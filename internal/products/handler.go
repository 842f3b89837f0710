package products

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/catalog3d/catalog/internal/assets"
	"github.com/catalog3d/catalog/internal/platform/httpx"
	"github.com/catalog3d/catalog/internal/upload"
)

const (
	fieldImage   = "image"
	fieldModel   = "productModel"
	fieldTexture = "productTexture"

	rateWindow = time.Minute
	bodySlack  = 64 << 10
)

// Handler exposes the product endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	store    assets.Store
	observer upload.Observer
}

// NewHandler builds Handler instance. observer may be nil.
func NewHandler(logger *slog.Logger, service *Service, store assets.Store, observer upload.Observer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, store: store, observer: observer}
}

// MountRoutes registers product routes on the root router.
func (h *Handler) MountRoutes(r chi.Router) {
	opts := h.service.Options()

	r.Get("/allproducts", h.listAll)
	r.Get("/totalproducts", h.count)
	r.Get("/categoryProducts/{categoryId}", h.listByCategory)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.list)
		// {id} is the category id on create.
		r.Post("/{id}", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)

		r.Get("/{id}/image", h.getImage)
		r.Delete("/{id}/image", h.deleteImage)
		r.Get("/{id}/model", h.getModel)
		r.Get("/{id}/model/{name}", h.getTexture)
		r.Delete("/{id}/model", h.deleteModel)
		r.Get("/{id}/textures", h.listTextures)

		r.Group(func(r chi.Router) {
			if opts.UploadRateLimit > 0 {
				r.Use(httprate.Limit(opts.UploadRateLimit, rateWindow,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						httpx.Error(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
					}),
				))
			}

			r.With(upload.Image(upload.ImageOptions{
				Field:      fieldImage,
				MaxBytes:   opts.ImageMaxBytes,
				Extensions: opts.ImageExtensions,
				Observer:   h.observer,
			})).Post("/{id}/image", h.uploadImage)

			model := upload.Disk(upload.DiskOptions{
				Kind:     "model",
				Field:    fieldModel,
				MaxBytes: opts.ModelMaxBytes,
				Store:    h.store,
				Dir:      modelFolder,
				Prepare:  assets.Prepare,
				Logger:   h.logger,
				Observer: h.observer,
			})
			r.With(h.requireProduct, model).Post("/{id}/model", h.uploadModel)
			r.With(h.requireProduct, model).Post("/{id}/model/{name}", h.uploadModel)

			r.With(h.requireProduct, upload.Disk(upload.DiskOptions{
				Kind:     "texture",
				Field:    fieldTexture,
				MaxBytes: opts.ModelMaxBytes,
				Store:    h.store,
				Dir:      func(r *http.Request) string { return assets.TextureDir(chi.URLParam(r, "id")) },
				Logger:   h.logger,
				Observer: h.observer,
			})).Post("/{id}/texture", h.uploadTexture)
		})
	})
}

// modelFolder is the optional bundle folder, always nested under the product.
func modelFolder(r *http.Request) string {
	return assets.BundleDir(chi.URLParam(r, "id"), chi.URLParam(r, "name"))
}

func (h *Handler) requireProduct(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Exists(r.Context(), chi.URLParam(r, "id")); err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	product, err := h.service.Create(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip")
	limit := queryInt(r, "limit")
	products, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) listByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListByCategory(r.Context(), chi.URLParam(r, "categoryId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.Count(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, total)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Product deleted")
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	img, ok := upload.ImageFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusBadRequest, upload.MsgNotImage)
		return
	}
	if err := h.service.SetImage(r.Context(), chi.URLParam(r, "id"), img.Data); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Empty(w, http.StatusOK)
}

func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearImage(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Empty(w, http.StatusOK)
}

func (h *Handler) getImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Bytes(w, http.StatusOK, "image/png", data)
}

type modelResponse struct {
	Product Product `json:"product"`
}

func (h *Handler) uploadModel(w http.ResponseWriter, r *http.Request) {
	files := upload.FilesFromContext(r.Context())
	product, err := h.service.AttachModel(r.Context(), chi.URLParam(r, "id"), files)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, modelResponse{Product: product})
}

func (h *Handler) uploadTexture(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, http.StatusOK, "Texture uploaded!")
}

func (h *Handler) getModel(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.ModelURL(r.Context(), chi.URLParam(r, "id"), requestScheme(r), r.Host)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) getTexture(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Texture(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Bytes(w, http.StatusOK, "image/png", data)
}

func (h *Handler) deleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DetachModel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Model path deleted!")
}

func (h *Handler) listTextures(w http.ResponseWriter, r *http.Request) {
	textures, err := h.service.Textures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, textures)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := 2*h.service.Options().ImageMaxBytes + bodySlack
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.RespondError(w, ErrBodyTooLarge)
			return nil, false
		}
		httpx.RespondError(w, ErrInvalidBody)
		return nil, false
	}
	return body, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if httpx.StatusOf(err) == http.StatusInternalServerError {
		h.logger.Error("product request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	httpx.RespondError(w, err)
}

// queryInt parses a non-negative integer; anything else is 0.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
