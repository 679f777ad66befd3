// Package server - Router und Server-Setup fuer imagematch
// Beinhaltet: Server-Struct, Router-Registrierung, allgemeine Endpoints
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/7blacky7/imagematch/api"
	"github.com/7blacky7/imagematch/catalog"
	"github.com/7blacky7/imagematch/envconfig"
	"github.com/7blacky7/imagematch/match"
	"github.com/7blacky7/imagematch/version"
	"github.com/7blacky7/imagematch/vision"
)

var mode string = gin.DebugMode

// Matcher vergleicht ein Referenzbild mit Kandidaten-URLs
type Matcher interface {
	Compare(ctx context.Context, ref []byte, locators []string) (*match.Report, error)
}

// ReferenceFetcher laedt ein Referenzbild per URL
type ReferenceFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Server haelt die prozessweiten Ressourcen. Das Orakel wird einmal in
// Serve geladen und von allen Requests geteilt.
type Server struct {
	addr      net.Addr
	matcher   Matcher
	model     vision.ModelInfo
	catalog   *catalog.Store
	reference ReferenceFetcher

	maxUpload      int64
	processTimeout time.Duration
	parallel       int
}

func init() {
	switch mode {
	case gin.DebugMode:
	case gin.ReleaseMode:
	case gin.TestMode:
	default:
		mode = gin.DebugMode
	}

	gin.SetMode(mode)
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() (http.Handler, error) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
		RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{api.FailedHeader, RequestIDHeader}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 8 << 20
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
		requestIDMiddleware(),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "imagematch is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "imagematch is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/info", s.InfoHandler)

	// Matching
	r.POST("/match-images", s.MatchImagesHandler)
	r.POST("/api/matches", s.ProductMatchesHandler)

	// Katalog
	r.GET("/api/products", s.ListProductsHandler)
	r.POST("/api/products", s.CreateProductHandler)
	r.DELETE("/api/products/:id", s.DeleteProductHandler)

	return r, nil
}

// InfoHandler gibt die Metadaten des geladenen Modells zurueck
func (s *Server) InfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.InfoResponse{
		Model:        s.model.Name,
		Type:         s.model.Type,
		EmbeddingDim: s.model.EmbeddingDim,
		ImageSize:    s.model.ImageSize,
		Parallel:     s.parallel,
	})
}
