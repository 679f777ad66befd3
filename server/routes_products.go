// routes_products.go - Produkt-Matcher und Katalog-Endpoints
// Enthaelt: ProductMatchesHandler, ListProductsHandler, CreateProductHandler, DeleteProductHandler

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/imagematch/api"
	"github.com/7blacky7/imagematch/catalog"
	"github.com/7blacky7/imagematch/fetch"
	"github.com/7blacky7/imagematch/logutil"
	"github.com/7blacky7/imagematch/match"
)

// imageExtensions sind die Dateiendungen, die als Upload akzeptiert werden
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// ProductMatchesHandler vergleicht ein Referenzbild (Upload "image" oder
// Feld "imageUrl") mit allen Katalog-Produkten.
func (s *Server) ProductMatchesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logutil.FromContext(ctx, nil)

	fh, fileErr := c.FormFile("image")
	imageURL := strings.TrimSpace(c.PostForm("imageUrl"))
	if fileErr != nil && imageURL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No image provided. Please upload an image file or provide an image URL"})
		return
	}

	var ref []byte
	if fileErr == nil {
		data, err := readUpload(fh, s.maxUpload)
		switch {
		case errors.Is(err, errUploadTooLarge):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large. Maximum size is " + humanBytes(s.maxUpload)})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "File upload error: " + err.Error()})
			return
		}

		if !slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(fh.Filename))) && !fetch.IsImage(data) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed!"})
			return
		}
		ref = data
	}

	products, err := s.catalog.List(ctx)
	if err != nil {
		logger.Error("catalog list failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process image matches"})
		return
	}
	if len(products) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No products found in database"})
		return
	}

	if ref == nil {
		ref, err = s.reference.Fetch(ctx, imageURL)
		switch {
		case fetch.IsTimeout(err):
			c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{"error": "Image download timeout. Please try again or use a different image URL"})
			return
		case errors.Is(err, fetch.ErrTooLarge):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image file too large. Please use a smaller image"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to download image: " + err.Error()})
			return
		}
	}

	locators := make([]string, len(products))
	for i, p := range products {
		locators[i] = p.ImageURL
	}

	if s.processTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.processTimeout)
		defer cancel()
	}

	report, err := s.matcher.Compare(ctx, ref, locators)
	switch {
	case errors.Is(err, match.ErrReferenceDecode):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": referenceDetail(err)})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "Service timeout. Please try again with a smaller image or fewer products"})
		return
	case err != nil:
		logger.Error("product match failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process image matches"})
		return
	}

	// Join ueber den Index, doppelte URLs bleiben eindeutig zugeordnet
	results := make([]api.ProductMatch, 0, len(report.Ranked))
	for _, r := range report.Ranked {
		p := products[r.Index]
		results = append(results, api.ProductMatch{
			Match:    api.Match{ImageURL: r.Locator, Similarity: roundScore(r.Score)},
			Name:     p.Name,
			Category: p.Category,
		})
	}

	c.JSON(http.StatusOK, results)
}

// ListProductsHandler gibt alle Katalog-Produkte zurueck
func (s *Server) ListProductsHandler(c *gin.Context) {
	products, err := s.catalog.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := api.ListProductsResponse{Products: make([]api.Product, len(products))}
	for i, p := range products {
		resp.Products[i] = toAPIProduct(p)
	}
	c.JSON(http.StatusOK, resp)
}

// CreateProductHandler legt ein Produkt an
func (s *Server) CreateProductHandler(c *gin.Context) {
	var req api.CreateProductRequest
	err := c.ShouldBindJSON(&req)
	switch {
	case errors.Is(err, io.EOF):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing request body"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.catalog.Create(c.Request.Context(), catalog.Product{
		Name:     req.Name,
		Category: req.Category,
		ImageURL: req.ImageURL,
	})
	switch {
	case errors.Is(err, catalog.ErrInvalid):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toAPIProduct(p))
}

// DeleteProductHandler entfernt ein Produkt
func (s *Server) DeleteProductHandler(c *gin.Context) {
	err := s.catalog.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

func toAPIProduct(p catalog.Product) api.Product {
	return api.Product{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}
