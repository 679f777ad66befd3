// Package api - API-Methoden des Clients.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// MatchImages ranks req.ImageURLs by visual similarity to req.Image.
func (c *Client) MatchImages(ctx context.Context, req *MatchImagesRequest) (*MatchImagesResponse, error) {
	urls := req.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return nil, err
	}

	body, err := newMultipart(
		map[string]string{"image_urls": string(raw)},
		formFile{field: "file", name: filename(req.Filename), data: req.Image},
	)
	if err != nil {
		return nil, err
	}

	var resp MatchImagesResponse
	header, err := c.send(ctx, http.MethodPost, "/match-images", body.buf, body.contentType, &resp.Matches)
	if err != nil {
		return nil, err
	}
	resp.Failed, _ = strconv.Atoi(header.Get(FailedHeader))
	return &resp, nil
}

// MatchProducts ranks all catalog products against the reference image.
func (c *Client) MatchProducts(ctx context.Context, req *ProductMatchRequest) ([]ProductMatch, error) {
	var files []formFile
	fields := map[string]string{}
	if req.ImageURL != "" {
		fields["imageUrl"] = req.ImageURL
	} else {
		files = append(files, formFile{field: "image", name: filename(req.Filename), data: req.Image})
	}

	body, err := newMultipart(fields, files...)
	if err != nil {
		return nil, err
	}

	var matches []ProductMatch
	if err := c.do(ctx, http.MethodPost, "/api/matches", body, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// ListProducts lists all catalog products.
func (c *Client) ListProducts(ctx context.Context) (*ListProductsResponse, error) {
	var lr ListProductsResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

// CreateProduct adds a product to the catalog.
func (c *Client) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPost, "/api/products", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes a product from the catalog.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+id, nil, nil)
}

// Info returns the loaded model's metadata.
func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	var info InfoResponse
	if err := c.do(ctx, http.MethodGet, "/api/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Heartbeat checks if the server has started and is responsive; if yes, it
// returns nil, otherwise an error.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil)
}

// Version returns the imagematch server version as a string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version struct {
		Version string `json:"version"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &version); err != nil {
		return "", err
	}

	return version.Version, nil
}

func filename(name string) string {
	if name == "" {
		return "image"
	}
	return name
}
