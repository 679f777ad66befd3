package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/7blacky7/imagematch/embedding"
	"github.com/7blacky7/imagematch/logutil"
	"github.com/7blacky7/imagematch/vision"
)

const defaultImageSize = 224

// Embedder is the oracle as seen by the comparator.
type Embedder interface {
	Embed(ctx context.Context, img *vision.NormalizedImage) (embedding.Vector, error)
	ModelInfo() vision.ModelInfo
}

// Fetcher retrieves the raw bytes behind a candidate locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, locator string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return f(ctx, locator)
}

// Comparator ranks candidate images against a reference image.
// It is safe for concurrent use; each Compare call has its own state.
type Comparator struct {
	embedder  Embedder
	fetcher   Fetcher
	imageSize int
	parallel  int
	maxPixels int64
	reclaim   bool
	logger    *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithImageSize overrides the normalization bound. Defaults to the oracle's
// input size.
func WithImageSize(size int) Option {
	return func(c *Comparator) {
		if size > 0 {
			c.imageSize = size
		}
	}
}

// WithParallel sets how many candidates are processed at once. Each worker
// holds at most one decoded image.
func WithParallel(n int) Option {
	return func(c *Comparator) {
		if n > 0 {
			c.parallel = n
		}
	}
}

// WithMaxPixels caps width*height of any image before it is decoded.
// n <= 0 disables the check.
func WithMaxPixels(n int64) Option {
	return func(c *Comparator) {
		c.maxPixels = n
	}
}

// WithReclaimMemory returns freed memory to the OS after every image.
func WithReclaimMemory(enabled bool) Option {
	return func(c *Comparator) {
		c.reclaim = enabled
	}
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(c *Comparator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewComparator returns a sequential Comparator over embedder and fetcher.
func NewComparator(embedder Embedder, fetcher Fetcher, opts ...Option) *Comparator {
	c := &Comparator{
		embedder:  embedder,
		fetcher:   fetcher,
		parallel:  1,
		maxPixels: vision.DefaultMaxPixels,
		logger:    slog.Default(),
	}
	if size := embedder.ModelInfo().ImageSize; size > 0 {
		c.imageSize = size
	} else {
		c.imageSize = defaultImageSize
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseLocators decodes the image_urls form value. It must be a JSON array
// of strings; anything else is ErrRequestMalformed.
func ParseLocators(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '[' {
		return nil, ErrRequestMalformed
	}

	var locators []string
	if err := json.Unmarshal([]byte(raw), &locators); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestMalformed, err)
	}
	if locators == nil {
		locators = []string{}
	}
	return locators, nil
}

// Compare embeds ref once and scores every locator against it.
// Only reference failures and context cancellation are returned as errors;
// candidate failures end up in Report.Failures.
func (c *Comparator) Compare(ctx context.Context, ref []byte, locators []string) (*Report, error) {
	logger := logutil.FromContext(ctx, c.logger)
	start := time.Now()

	refVec, err := c.embedReference(ctx, ref)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(locators))

	var g errgroup.Group
	g.SetLimit(c.parallel)
	for i, locator := range locators {
		g.Go(func() error {
			outcomes[i] = c.candidate(ctx, logger, refVec, i, locator)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked, failures := Rank(outcomes)
	for _, f := range failures {
		logger.Warn("candidate failed", "index", f.Index, "image_url", f.Locator, "stage", f.Stage, "reason", f.Reason())
	}

	logger.Info("comparison finished",
		"candidates", len(locators),
		"ranked", len(ranked),
		"failed", len(failures),
		"duration", time.Since(start))

	return &Report{
		Ranked:   ranked,
		Failures: failures,
		Model:    c.embedder.ModelInfo().Name,
	}, nil
}

func (c *Comparator) embedReference(ctx context.Context, ref []byte) (embedding.Vector, error) {
	img, err := vision.NormalizeWithLimit(ref, c.imageSize, c.maxPixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceDecode, err)
	}
	defer c.release(img)

	return c.embed(ctx, img)
}

func (c *Comparator) embed(ctx context.Context, img *vision.NormalizedImage) (embedding.Vector, error) {
	vec, err := c.embedder.Embed(ctx, img)
	if err != nil && !errors.Is(err, ErrOracle) {
		err = fmt.Errorf("%w: %w", ErrOracle, err)
	}
	return vec, err
}

// candidate runs Fetching -> Normalizing -> Embedding -> Scored for a single
// locator. It never panics and never returns a request-level error.
func (c *Comparator) candidate(ctx context.Context, logger *slog.Logger, refVec embedding.Vector, index int, locator string) (out Outcome) {
	out = Outcome{Index: index, Locator: locator, Stage: StageFetching}

	defer func() {
		if r := recover(); r != nil {
			out.Score = 0
			out.Err = fmt.Errorf("%w: panic in %s: %v", ErrInternal, out.Stage, r)
		}
	}()

	logger.Log(ctx, logutil.LevelTrace, "fetching candidate", "index", index, "image_url", locator)
	raw, err := c.fetcher.Fetch(ctx, locator)
	if err != nil {
		out.Err = fmt.Errorf("%w: %w", ErrCandidateFetch, err)
		return out
	}

	out.Stage = StageNormalizing
	img, err := vision.NormalizeWithLimit(raw, c.imageSize, c.maxPixels)
	if err != nil {
		out.Err = fmt.Errorf("%w: %w", ErrCandidateDecode, err)
		return out
	}

	out.Stage = StageEmbedding
	vec, err := c.embed(ctx, img)
	c.release(img)
	if err != nil {
		out.Err = err
		return out
	}

	out.Score = Score(refVec, vec)
	out.Stage = StageScored
	return out
}

func (c *Comparator) release(img *vision.NormalizedImage) {
	img.Release()
	if c.reclaim {
		debug.FreeOSMemory()
	}
}
