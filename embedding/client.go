// MODUL: client
// ZWECK: Duenner Wrapper um das Embedding-Orakel (VisionEncoder)
// INPUT: NormalizedImage
// OUTPUT: L2-normalisierter Vector (float64)
// NEBENEFFEKTE: Ruft das Orakel auf, serialisiert parallele Aufrufe
// ABHAENGIGKEITEN: vision, golang.org/x/sync/semaphore, gonum.org/v1/gonum/floats
// HINWEISE: Das Orakel gilt als nicht reentrant; der Client haelt keinen Zustand zwischen Aufrufen

package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/floats"

	"github.com/7blacky7/imagematch/vision"
)

var (
	// ErrOracle wird zurueckgegeben wenn das Orakel fehlschlaegt oder einen unbrauchbaren Vektor liefert
	ErrOracle = errors.New("embedding oracle failed")

	ErrEmptyVector   = errors.New("empty vector")
	ErrNonFinite     = errors.New("vector contains NaN or Inf values")
	ErrZeroMagnitude = errors.New("zero magnitude vector")
)

// Vector ist ein Embedding mit Einheitslaenge.
type Vector []float64

// Client ruft den prozessweiten Encoder auf.
type Client struct {
	encoder vision.VisionEncoder
	slot    *semaphore.Weighted
}

// New erstellt einen Client fuer encoder. Der Encoder wird nicht kopiert,
// Close gibt ihn frei.
func New(encoder vision.VisionEncoder) *Client {
	return &Client{
		encoder: encoder,
		slot:    semaphore.NewWeighted(1),
	}
}

// Embed bildet img auf einen Einheitsvektor ab.
// img wird nach der Rueckkehr nicht mehr referenziert.
func (c *Client) Embed(ctx context.Context, img *vision.NormalizedImage) (vec Vector, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracle, err)
	}
	if err := c.slot.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracle, err)
	}
	defer c.slot.Release(1)

	defer func() {
		if r := recover(); r != nil {
			vec = nil
			err = fmt.Errorf("%w: panic: %v", ErrOracle, r)
		}
	}()

	raw, err := c.encoder.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracle, err)
	}

	vec, err = Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracle, err)
	}
	return vec, nil
}

// Normalize konvertiert raw nach float64 und skaliert auf L2-Norm 1.
func Normalize(raw []float32) (Vector, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyVector
	}

	out := make(Vector, len(raw))
	for i, v := range raw {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrNonFinite
		}
		out[i] = f
	}

	norm := floats.Norm(out, 2)
	if norm == 0 {
		return nil, ErrZeroMagnitude
	}
	floats.Scale(1/norm, out)
	return out, nil
}

// ModelInfo gibt die Metadaten des Orakels zurueck
func (c *Client) ModelInfo() vision.ModelInfo {
	return c.encoder.ModelInfo()
}

// Close gibt den Encoder frei
func (c *Client) Close() error {
	return c.encoder.Close()
}
