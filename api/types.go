// Package api - Request/Response Typen der imagematch REST API
// Enthaelt: StatusError, Match, ProductMatch, Product, InfoResponse
package api

import (
	"fmt"
	"time"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the imagematch server logs for details"
	}
}

// FailedHeader carries the number of candidates that could not be scored.
const FailedHeader = "X-Imagematch-Failed"

// Match is one entry of the /match-images response.
type Match struct {
	ImageURL   string  `json:"image_url"`
	Similarity float64 `json:"similarity"`
}

// MatchImagesRequest is the multipart request of /match-images.
type MatchImagesRequest struct {
	// Image holds the encoded reference image.
	Image []byte
	// Filename is sent as the multipart file name.
	Filename  string
	ImageURLs []string
}

// MatchImagesResponse is the ranked result plus the failed candidate count.
type MatchImagesResponse struct {
	Matches []Match
	Failed  int
}

// ProductMatch is a Match joined with catalog data.
type ProductMatch struct {
	Match
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ProductMatchRequest is the multipart request of /api/matches.
// Exactly one of Image or ImageURL is set.
type ProductMatchRequest struct {
	Image    []byte
	Filename string
	ImageURL string
}

// Product is a catalog entry.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProductRequest is the request passed to [Client.CreateProduct].
type CreateProductRequest struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url"`
}

// ListProductsResponse is the response from [Client.ListProducts].
type ListProductsResponse struct {
	Products []Product `json:"products"`
}

// InfoResponse describes the loaded embedding model.
type InfoResponse struct {
	Model        string `json:"model"`
	Type         string `json:"type"`
	EmbeddingDim int    `json:"embedding_dim"`
	ImageSize    int    `json:"image_size"`
	Parallel     int    `json:"parallel"`
}
