package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7blacky7/imagematch/api"
	"github.com/7blacky7/imagematch/catalog"
	"github.com/7blacky7/imagematch/embedding"
	"github.com/7blacky7/imagematch/fetch"
	"github.com/7blacky7/imagematch/match"
	"github.com/7blacky7/imagematch/version"
	"github.com/7blacky7/imagematch/vision"
	"github.com/7blacky7/imagematch/vision/histogram"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	red  = color.RGBA{220, 20, 20, 255}
	blue = color.RGBA{20, 20, 220, 255}
)

type fixture struct {
	handler http.Handler
	server  *Server
	images  *httptest.Server
	hits    *atomic.Int32
	store   *catalog.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	redPNG, bluePNG := solidPNG(t, red), solidPNG(t, blue)
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/red.png", func(w http.ResponseWriter, r *http.Request) { hits.Add(1); w.Write(redPNG) })
	mux.HandleFunc("/blue.png", func(w http.ResponseWriter, r *http.Request) { hits.Add(1); w.Write(bluePNG) })
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) { hits.Add(1); w.Write([]byte("not an image")) })
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) { hits.Add(1); http.NotFound(w, r) })
	images := httptest.NewServer(mux)
	t.Cleanup(images.Close)

	spec, err := vision.LookupModel("histogram")
	require.NoError(t, err)
	oracle := embedding.New(histogram.New(spec))

	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := &Server{
		matcher:        match.NewComparator(oracle, fetch.New(fetch.WithTimeout(2*time.Second))),
		model:          oracle.ModelInfo(),
		catalog:        store,
		reference:      fetch.New(fetch.WithTimeout(2*time.Second), fetch.WithImageOnly()),
		maxUpload:      5 << 20,
		processTimeout: time.Minute,
		parallel:       1,
	}
	h, err := s.GenerateRoutes()
	require.NoError(t, err)

	return &fixture{handler: h, server: s, images: images, hits: &hits, store: store}
}

func (f *fixture) url(name string) string {
	return f.images.URL + "/" + name
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		part.Write(data)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func urlsJSON(urls ...string) string {
	b, _ := json.Marshal(urls)
	return string(b)
}

func TestMatchImages(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, "/match-images",
		map[string]string{"image_urls": urlsJSON(f.url("blue.png"), f.url("missing.png"), f.url("red.png"), f.url("garbage.png"))},
		"file", "ref.png", solidPNG(t, red))
	w := f.serve(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2", w.Header().Get(api.FailedHeader))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var matches []api.Match
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, f.url("red.png"), matches[0].ImageURL)
	assert.Equal(t, 1.0, matches[0].Similarity)
	assert.Equal(t, f.url("blue.png"), matches[1].ImageURL)
	assert.Less(t, matches[1].Similarity, matches[0].Similarity)
	assert.GreaterOrEqual(t, matches[1].Similarity, 0.0)
}

func TestMatchImagesMalformedList(t *testing.T) {
	f := newFixture(t)

	for _, raw := range []string{`"` + f.url("red.png") + `"`, `{"a":1}`, `[1,2]`, `not json`} {
		req := multipartRequest(t, "/match-images", map[string]string{"image_urls": raw}, "file", "ref.png", solidPNG(t, red))
		w := f.serve(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"detail":"image_urls must be a JSON list string"}`, w.Body.String())
	}
	assert.Equal(t, int32(0), f.hits.Load(), "no candidate may be fetched")
}

func TestMatchImagesBadReference(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, "/match-images", map[string]string{"image_urls": urlsJSON(f.url("red.png"))}, "file", "ref.png", []byte("nope"))
	w := f.serve(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "Uploaded image invalid: ")
	assert.Equal(t, int32(0), f.hits.Load())
}

func TestMatchImagesMissingFields(t *testing.T) {
	f := newFixture(t)

	w := f.serve(multipartRequest(t, "/match-images", map[string]string{"image_urls": "[]"}, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file is required")

	w = f.serve(multipartRequest(t, "/match-images", nil, "file", "ref.png", solidPNG(t, red)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "image_urls is required")
}

func TestMatchImagesEmptyList(t *testing.T) {
	f := newFixture(t)

	w := f.serve(multipartRequest(t, "/match-images", map[string]string{"image_urls": "[]"}, "file", "ref.png", solidPNG(t, red)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, "0", w.Header().Get(api.FailedHeader))
}

func addProduct(t *testing.T, f *fixture, name, category, url string) {
	t.Helper()
	_, err := f.store.Create(context.Background(), catalog.Product{Name: name, Category: category, ImageURL: url})
	require.NoError(t, err)
}

func TestProductMatches(t *testing.T) {
	f := newFixture(t)

	w := f.serve(multipartRequest(t, "/api/matches", nil, "image", "ref.png", solidPNG(t, red)))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No products found in database"}`, w.Body.String())

	addProduct(t, f, "Blue Mug", "kitchen", f.url("blue.png"))
	addProduct(t, f, "Red Chair", "furniture", f.url("red.png"))
	addProduct(t, f, "Ghost", "none", f.url("missing.png"))

	w = f.serve(multipartRequest(t, "/api/matches", nil, "image", "ref.png", solidPNG(t, red)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var matches []api.ProductMatch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "Red Chair", matches[0].Name)
	assert.Equal(t, "furniture", matches[0].Category)
	assert.Equal(t, 1.0, matches[0].Similarity)
	assert.Equal(t, "Blue Mug", matches[1].Name)
}

func TestProductMatchesByURL(t *testing.T) {
	f := newFixture(t)
	addProduct(t, f, "Red Chair", "furniture", f.url("red.png"))

	w := f.serve(multipartRequest(t, "/api/matches", map[string]string{"imageUrl": f.url("red.png")}, "", "", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var matches []api.ProductMatch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "Red Chair", matches[0].Name)

	w = f.serve(multipartRequest(t, "/api/matches", map[string]string{"imageUrl": f.url("garbage.png")}, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type timeoutFetcher struct{}

func (timeoutFetcher) Fetch(context.Context, string) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

func TestProductMatchesErrors(t *testing.T) {
	f := newFixture(t)
	addProduct(t, f, "Red Chair", "furniture", f.url("red.png"))

	w := f.serve(multipartRequest(t, "/api/matches", nil, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No image provided")

	w = f.serve(multipartRequest(t, "/api/matches", nil, "image", "notes.txt", []byte("plain text file")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Only image files are allowed!"}`, w.Body.String())

	w = f.serve(multipartRequest(t, "/api/matches", nil, "image", "photo.avif", []byte("plain bytes, not an image")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Only image files are allowed!"}`, w.Body.String())

	f.server.maxUpload = 64
	w = f.serve(multipartRequest(t, "/api/matches", nil, "image", "big.png", bytes.Repeat([]byte{1}, 128)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	f.server.maxUpload = 5 << 20

	f.server.reference = timeoutFetcher{}
	w = f.serve(multipartRequest(t, "/api/matches", map[string]string{"imageUrl": "http://slow.example/a.png"}, "", "", nil))
	assert.Equal(t, http.StatusRequestTimeout, w.Code)

	w = f.serve(multipartRequest(t, "/api/matches", nil, "image", "broken.png", []byte("\x89PNG\r\n\x1a\nbroken")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Uploaded image invalid")
}

func TestProductsCRUD(t *testing.T) {
	f := newFixture(t)

	body := `{"name":"Lamp","category":"light","image_url":"http://x/lamp.png"}`
	w := f.serve(httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created api.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	w = f.serve(httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list api.ListProductsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Lamp", list.Products[0].Name)

	w = f.serve(httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(`{"name":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.serve(httptest.NewRequest(http.MethodPost, "/api/products", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.serve(httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.serve(httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGeneralRoutes(t *testing.T) {
	f := newFixture(t)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "imagematch is running", w.Body.String())

	w = f.serve(httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.JSONEq(t, `{"version":"`+version.Version+`"}`, w.Body.String())

	w = f.serve(httptest.NewRequest(http.MethodGet, "/api/info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info api.InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "histogram", info.Model)
	assert.Equal(t, histogram.EmbeddingDim, info.EmbeddingDim)

	w = f.serve(httptest.NewRequest(http.MethodPut, "/api/info", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	f := newFixture(t)
	const id = "0b8f5a2e-9c1d-4e6f-8a7b-3c2d1e0f9a8b"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	w := f.serve(req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = f.serve(req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestAllowedHost(t *testing.T) {
	cases := map[string]bool{
		"":                 true,
		"localhost":        true,
		"printer.local":    true,
		"api.internal":     true,
		"example.com":      false,
		"evil.localhost.x": false,
	}
	for host, expect := range cases {
		assert.Equal(t, expect, allowedHost(host), host)
	}
}
