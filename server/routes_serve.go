// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - laedt Orakel und Katalog, startet den HTTP-Server

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/7blacky7/imagematch/catalog"
	"github.com/7blacky7/imagematch/embedding"
	"github.com/7blacky7/imagematch/envconfig"
	"github.com/7blacky7/imagematch/fetch"
	"github.com/7blacky7/imagematch/logutil"
	"github.com/7blacky7/imagematch/match"
	"github.com/7blacky7/imagematch/version"
	"github.com/7blacky7/imagematch/vision"

	// Encoder-Backends registrieren
	_ "github.com/7blacky7/imagematch/vision/histogram"
	_ "github.com/7blacky7/imagematch/vision/onnx"
)

// Serve laedt das Orakel einmal und startet den HTTP-Server
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	encoder, err := vision.NewEncoder(envconfig.Model(), envconfig.Models(),
		vision.WithDevice(envconfig.Device()),
		vision.WithThreads(int(envconfig.NumThreads())),
		vision.WithRuntimeLibrary(envconfig.RuntimeLibrary()),
	)
	if err != nil {
		return fmt.Errorf("load model %q: %w", envconfig.Model(), err)
	}

	oracle := embedding.New(encoder)
	defer oracle.Close()

	info := oracle.ModelInfo()
	slog.Info("model loaded", "model", info.Name, "type", info.Type, "dim", info.EmbeddingDim, "image_size", info.ImageSize)

	store, err := catalog.Open(envconfig.Catalog())
	if err != nil {
		return err
	}
	defer store.Close()

	parallel := max(int(envconfig.NumParallel()), 1)
	candidates := fetch.New(
		fetch.WithTimeout(envconfig.FetchTimeout()),
		fetch.WithMaxBytes(int64(envconfig.MaxFetch())),
	)

	s := &Server{
		addr: ln.Addr(),
		matcher: match.NewComparator(oracle, candidates,
			match.WithParallel(parallel),
			match.WithMaxPixels(int64(envconfig.MaxPixels())),
			match.WithReclaimMemory(envconfig.LowMemory()),
		),
		model:   info,
		catalog: store,
		reference: fetch.New(
			fetch.WithTimeout(envconfig.ReferenceTimeout()),
			fetch.WithMaxBytes(int64(envconfig.MaxUpload())),
			fetch.WithImageOnly(),
		),
		maxUpload:      int64(envconfig.MaxUpload()),
		processTimeout: envconfig.ProcessTimeout(),
		parallel:       parallel,
	}

	h, err := s.GenerateRoutes()
	if err != nil {
		return err
	}

	ctx, done := context.WithCancel(context.Background())

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{Handler: h}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !slices.Contains([]error{http.ErrServerClosed}, err) {
		return err
	}
	<-ctx.Done()
	return nil
}
