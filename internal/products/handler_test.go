package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalog3d/catalog/internal/assets/assetstest"
	"github.com/catalog3d/catalog/internal/imaging"
)

type formFile struct {
	field, filename string
	body            []byte
}

func multipartRequest(t *testing.T, target string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type testServer struct {
	router http.Handler
	repo   *memRepo
	store  *assetstest.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc, repo, store := newTestService(t, DefaultOptions())
	r := chi.NewRouter()
	NewHandler(nil, svc, store, nil).MountRoutes(r)
	return &testServer{router: r, repo: repo, store: store}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) call(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Message
}

func TestHandlerCreate(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.call(http.MethodPost, "/products/sofas", `{"name":"Chesterfield","categoryId":"beds","price":999}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "sofas", created.CategoryID)
	assert.NotEmpty(t, created.ID)

	rr = srv.call(http.MethodPost, "/products/sofas", `{"price":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr), "name is required")
}

func TestHandlerRejectsOversizedBody(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})
	huge := `{"description":"` + strings.Repeat("x", 3_000_000) + `"}`

	rr := srv.call(http.MethodPost, "/products/sofas", huge)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Request body too large", decodeError(t, rr))

	rr = srv.call(http.MethodPatch, "/products/"+p.ID, huge)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Request body too large", decodeError(t, rr))
}

func TestHandlerListPagination(t *testing.T) {
	srv := newTestServer(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		srv.repo.put(Product{Name: name, CategoryID: "x"})
	}

	rr := srv.call(http.MethodGet, "/products?skip=2&limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page []Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Name)

	rr = srv.call(http.MethodGet, "/products?skip=abc&limit=", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Len(t, page, 5)
}

func TestHandlerListFailureIsStable500(t *testing.T) {
	srv := newTestServer(t)
	srv.repo.listErr = errors.New("pq: relation does not exist")

	rr := srv.call(http.MethodGet, "/allproducts", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", decodeError(t, rr))
}

func TestHandlerEmptyCollections(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.call(http.MethodGet, "/allproducts", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = srv.call(http.MethodGet, "/categoryProducts/none", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = srv.call(http.MethodGet, "/totalproducts", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	srv.repo.put(Product{Name: "a", CategoryID: "x"})
	rr = srv.call(http.MethodGet, "/totalproducts", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", strings.TrimSpace(rr.Body.String()))
}

func TestHandlerGetUpdateDelete(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "Desk", CategoryID: "tables", Price: 10})

	rr := srv.call(http.MethodGet, "/products/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Product not found", decodeError(t, rr))

	rr = srv.call(http.MethodPatch, "/products/"+p.ID, `{"price":20,"sku":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid updates!", decodeError(t, rr))

	rr = srv.call(http.MethodPatch, "/products/"+p.ID, `{"price":20}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, 20.0, updated.Price)
	assert.Equal(t, "Desk", updated.Name)

	rr = srv.call(http.MethodPatch, "/products/missing", `{"price":20}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.call(http.MethodDelete, "/products/"+p.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Product deleted", decodeMessage(t, rr))

	rr = srv.call(http.MethodDelete, "/products/"+p.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlerImageLifecycle(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})

	rr := srv.do(multipartRequest(t, "/products/"+p.ID+"/image", formFile{"image", "photo.png", pngBytes(t, 320, 200)}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = srv.call(http.MethodGet, "/products/"+p.ID+"/image", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, imaging.IsThumbnail(rr.Body.Bytes(), 250))

	rr = srv.call(http.MethodDelete, "/products/"+p.ID+"/image", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = srv.call(http.MethodGet, "/products/"+p.ID+"/image", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.call(http.MethodDelete, "/products/missing/image", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerImageRejections(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})

	for _, name := range []string{"photo.gif", "photo.PNG", "photo.png.txt"} {
		rr := srv.do(multipartRequest(t, "/products/"+p.ID+"/image", formFile{"image", name, pngBytes(t, 4, 4)}))
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
		assert.Equal(t, "Please upload an image", decodeError(t, rr), name)
	}

	rr := srv.do(multipartRequest(t, "/products/"+p.ID+"/image", formFile{"image", "fake.jpg", []byte("not really")}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	stored, _ := srv.repo.Get(context.Background(), p.ID)
	assert.Empty(t, stored.Image)
}

func TestHandlerModelUpload(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})

	rr := srv.do(multipartRequest(t, "/products/"+p.ID+"/model",
		formFile{"productModel", "scene.gltf", []byte(`{"asset":{}}`)},
		formFile{"productModel", "scene.bin", []byte{1, 2, 3}},
	))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Product Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/uploads/"+p.ID+"/scene.gltf", body.Product.ModelPath)
	assert.True(t, srv.store.Exists(p.ID+"/textures"))
	data, ok := srv.store.File(p.ID + "/scene.bin")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)

	rr = srv.do(multipartRequest(t, "/products/"+p.ID+"/model/bundle",
		formFile{"productModel", "scene.gltf", []byte(`{}`)},
	))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/uploads/"+p.ID+"/bundle/scene.gltf", body.Product.ModelPath)
	assert.True(t, strings.HasPrefix(body.Product.ModelPath, "/uploads/"+p.ID+"/"))
	assert.True(t, srv.store.Exists(p.ID+"/bundle/scene.gltf"))
	assert.False(t, srv.store.Exists("bundle"))
}

func TestHandlerFolderUploadStaysInsideProduct(t *testing.T) {
	srv := newTestServer(t)
	a := srv.repo.put(Product{Name: "a", CategoryID: "x"})
	b := srv.repo.put(Product{Name: "b", CategoryID: "x"})
	srv.store.Put(b.ID+"/scene.gltf", []byte("b-original"))

	rr := srv.do(multipartRequest(t, "/products/"+a.ID+"/model/"+b.ID,
		formFile{"productModel", "scene.gltf", []byte("from-a")},
	))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Product Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/uploads/"+a.ID+"/"+b.ID+"/scene.gltf", body.Product.ModelPath)

	data, ok := srv.store.File(b.ID + "/scene.gltf")
	require.True(t, ok)
	assert.Equal(t, "b-original", string(data))

	req := httptest.NewRequest(http.MethodGet, "/products/"+a.ID+"/model", nil)
	req.Host = "shop.example.com"
	rr = srv.do(req)
	assert.Equal(t, "http://shop.example.com/uploads/"+a.ID+"/"+b.ID+"/scene.gltf", rr.Header().Get("Location"))

	rr = srv.call(http.MethodDelete, "/products/"+a.ID+"/model", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, srv.store.Exists(a.ID+"/"+b.ID+"/scene.gltf"))
	assert.True(t, srv.store.Exists(b.ID+"/scene.gltf"))
}

func TestHandlerFolderUploadRejectsEscapingName(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})

	rr := srv.do(multipartRequest(t, "/products/"+p.ID+"/model/..",
		formFile{"productModel", "scene.gltf", []byte("x")},
	))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid file name", decodeError(t, rr))
}

func TestHandlerModelUploadUnknownProduct(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(multipartRequest(t, "/products/ghost/model", formFile{"productModel", "scene.gltf", []byte(`{}`)}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, srv.store.Exists("ghost"))
}

func TestHandlerModelUploadWithoutFiles(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})

	rr := srv.do(multipartRequest(t, "/products/"+p.ID+"/model"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No model files uploaded", decodeError(t, rr))
}

func TestHandlerTexturesAndModelDelete(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})

	rr := srv.do(multipartRequest(t, "/products/"+p.ID+"/texture",
		formFile{"productTexture", "wood.png", []byte("wood")},
		formFile{"productTexture", "metal.png", []byte("metal")},
	))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Texture uploaded!", decodeMessage(t, rr))

	rr = srv.call(http.MethodGet, "/products/"+p.ID+"/model/wood.png", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "wood", rr.Body.String())

	rr = srv.call(http.MethodGet, "/products/"+p.ID+"/textures", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[
		{"name":"metal.png","url":"/uploads/`+p.ID+`/textures/metal.png"},
		{"name":"wood.png","url":"/uploads/`+p.ID+`/textures/wood.png"}
	]`, rr.Body.String())

	rr = srv.call(http.MethodDelete, "/products/"+p.ID+"/model", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Model path deleted!", decodeMessage(t, rr))

	rr = srv.call(http.MethodGet, "/products/"+p.ID+"/model/wood.png", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.call(http.MethodDelete, "/products/missing/model", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerModelRedirect(t *testing.T) {
	srv := newTestServer(t)
	p := srv.repo.put(Product{Name: "a", CategoryID: "x"})

	req := httptest.NewRequest(http.MethodGet, "/products/"+p.ID+"/model", nil)
	req.Host = "shop.example.com"
	rr := srv.do(req)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "http://shop.example.com/uploads/"+p.ID+"/scene.gltf", rr.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/products/"+p.ID+"/model", nil)
	req.Host = "shop.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = srv.do(req)
	assert.Equal(t, "https://shop.example.com/uploads/"+p.ID+"/scene.gltf", rr.Header().Get("Location"))

	rr = srv.call(http.MethodGet, "/products/missing/model", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
