// routes_match.go - Handler fuer POST /match-images
// Enthaelt: MatchImagesHandler, readUpload, roundScore

package server

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/imagematch/api"
	"github.com/7blacky7/imagematch/logutil"
	"github.com/7blacky7/imagematch/match"
)

var errUploadTooLarge = errors.New("upload too large")

// MatchImagesHandler rankt image_urls nach Aehnlichkeit zum hochgeladenen Bild.
// Fehlgeschlagene Kandidaten fehlen in der Antwort und werden im Header gezaehlt.
func (s *Server) MatchImagesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logutil.FromContext(ctx, nil)

	rawURLs, ok := c.GetPostForm("image_urls")
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "image_urls is required"})
		return
	}

	// Liste vor jedem Abruf validieren
	locators, err := match.ParseLocators(rawURLs)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": match.ErrRequestMalformed.Error()})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "file is required"})
		return
	}

	ref, err := readUpload(fh, s.maxUpload)
	switch {
	case errors.Is(err, errUploadTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"detail": err.Error()})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Uploaded image invalid: %v", err)})
		return
	}

	report, err := s.matcher.Compare(ctx, ref, locators)
	switch {
	case errors.Is(err, match.ErrReferenceDecode):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": referenceDetail(err)})
		return
	case err != nil:
		logger.Error("match failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal error while matching images"})
		return
	}

	matches := make([]api.Match, len(report.Ranked))
	for i, r := range report.Ranked {
		matches[i] = api.Match{ImageURL: r.Locator, Similarity: roundScore(r.Score)}
	}

	c.Header(api.FailedHeader, strconv.Itoa(len(report.Failures)))
	c.JSON(http.StatusOK, matches)
}

// readUpload liest eine hochgeladene Datei, hoechstens limit Bytes
func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit > 0 && fh.Size > limit {
		return nil, fmt.Errorf("%w: maximum size is %s", errUploadTooLarge, humanBytes(limit))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: maximum size is %s", errUploadTooLarge, humanBytes(limit))
	}
	return data, nil
}

// referenceDetail formatiert einen Referenz-Dekodierfehler wie "Uploaded image invalid: <grund>"
func referenceDetail(err error) string {
	reason := strings.TrimPrefix(err.Error(), match.ErrReferenceDecode.Error()+": ")
	return "Uploaded image invalid: " + reason
}

// roundScore rundet auf 4 Nachkommastellen
func roundScore(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func humanBytes(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
