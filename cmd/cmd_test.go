package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7blacky7/imagematch/api"
)

func writePNG(t *testing.T, dir, name string, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewCLI()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewCLICommands(t *testing.T) {
	root := NewCLI()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "match", "products", "info", "bench"}, names)

	products, _, err := root.Find([]string{"products", "ls"})
	require.NoError(t, err)
	assert.Equal(t, "list", products.Name())

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Contains(t, serve.UsageString(), "IMAGEMATCH_NUM_PARALLEL")
}

func TestMatchCommand(t *testing.T) {
	var gotURLs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/match-images":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if _, _, err := r.FormFile("file"); err != nil {
				http.Error(w, "file is required", http.StatusBadRequest)
				return
			}
			json.Unmarshal([]byte(r.FormValue("image_urls")), &gotURLs)
			w.Header().Set(api.FailedHeader, "1")
			json.NewEncoder(w).Encode([]api.Match{{ImageURL: "http://img/a.png", Similarity: 0.91}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	t.Setenv("IMAGEMATCH_HOST", srv.URL)

	ref := writePNG(t, t.TempDir(), "ref.png", color.RGBA{200, 0, 0, 255})
	out, err := run(t, "match", "--json", ref, "http://img/a.png", "http://img/b.png")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://img/a.png", "http://img/b.png"}, gotURLs)

	var matches []api.Match
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	assert.Equal(t, []api.Match{{ImageURL: "http://img/a.png", Similarity: 0.91}}, matches)

	_, err = run(t, "match", ref)
	assert.ErrorContains(t, err, "at least one candidate")
}

func TestProductsListCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/api/products":
			json.NewEncoder(w).Encode(api.ListProductsResponse{Products: []api.Product{
				{ID: "1", Name: "Mug", Category: "Kitchen", ImageURL: "http://img/mug.png"},
				{ID: "2", Name: "Chair", Category: "furniture", ImageURL: "http://img/chair.png"},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	t.Setenv("IMAGEMATCH_HOST", srv.URL)

	out, err := run(t, "products", "list", "--json", "--category", "kitchen")
	require.NoError(t, err)

	var products []api.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)
}

func TestServerNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	t.Setenv("IMAGEMATCH_HOST", addr)

	_, err := run(t, "products", "list")
	require.Error(t, err)
}

func TestBenchHistogram(t *testing.T) {
	dir := t.TempDir()
	red := writePNG(t, dir, "red.png", color.RGBA{200, 10, 10, 255})
	blue := writePNG(t, dir, "blue.png", color.RGBA{10, 10, 200, 255})

	out, err := run(t, "bench", "--model", "histogram", "--iterations", "2", "--warmup", "0", "--json", red, blue)
	require.NoError(t, err)

	var results []benchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "red.png", results[0].Image)
	assert.Equal(t, "png", results[0].Format)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Less(t, results[1].Similarity, results[0].Similarity)

	_, err = run(t, "bench", "--model", "histogram", "--iterations", "0", red)
	assert.ErrorContains(t, err, "--iterations")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "http://...", truncate("http://example.com/very/long/path.png", 10))
	assert.Equal(t, "日本...", truncate("日本語の画像", 7))
}
