// MODUL: fetch
// ZWECK: Laedt Kandidaten-Bilder per HTTP(S) mit festem Timeout und Groessenlimit
// INPUT: URL, Context
// OUTPUT: Roh-Bytes der Antwort
// NEBENEFFEKTE: Netzwerkzugriff
// ABHAENGIGKEITEN: net/http, github.com/gabriel-vasile/mimetype
// HINWEISE: Nur Status 200 gilt als Erfolg; Redirects folgt der http.Client selbst

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 20 << 20
	UserAgent       = "imagematch/1.0"
)

var (
	ErrInvalidURL = errors.New("invalid image url")
	ErrTooLarge   = errors.New("response too large")
	ErrNotImage   = errors.New("response is not an image")
)

// StatusError wird bei einem HTTP-Status != 200 zurueckgegeben.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to get %s (status %d)", e.URL, e.StatusCode)
}

// HTTPFetcher laedt Bilder ueber HTTP.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	imageOnly bool
	userAgent string
}

// Option konfiguriert den HTTPFetcher
type Option func(*HTTPFetcher)

// WithTimeout setzt den Timeout pro Abruf
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBytes begrenzt die Antwortgroesse
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithImageOnly lehnt Antworten ab, deren Inhalt nicht als image/* erkannt wird.
func WithImageOnly() Option {
	return func(f *HTTPFetcher) { f.imageOnly = true }
}

// WithHTTPClient setzt einen eigenen HTTP Client
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// New erstellt einen HTTPFetcher mit Defaults (10s, 20 MiB).
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		maxBytes:  DefaultMaxBytes,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch laedt rawURL. Der Timeout gilt fuer Verbindung und Body zusammen.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	// Ein Byte mehr lesen um Ueberschreitung zu erkennen
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	if f.imageOnly && !IsImage(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mimetype.Detect(data).String())
	}

	return data, nil
}

// IsImage prueft anhand der Magic-Bytes ob data ein Bild ist.
func IsImage(data []byte) bool {
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}

// IsTimeout meldet ob err durch einen Timeout entstanden ist.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
