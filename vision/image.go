// MODUL: image
// ZWECK: Dekodiert Roh-Bytes zu einem kanonischen RGB-Bild begrenzter Groesse
// INPUT: Bild-Bytes (JPEG/PNG/GIF/WebP/BMP/TIFF), Ziel-Kantenlaenge des Encoders
// OUTPUT: NormalizedImage (RGB, Alpha auf Weiss kompositiert, Thumbnail-Groesse)
// NEBENEFFEKTE: keine, das dekodierte Original wird nach dem Skalieren verworfen
// ABHAENGIGKEITEN: golang.org/x/image/draw, x/image/webp, x/image/bmp, x/image/tiff
// HINWEISE: Nur Verkleinerung (Thumbnail-Semantik), Padding/Zentrierung ist Sache des Encoders

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	// Standard-Decoder registrieren
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode wird zurueckgegeben wenn die Bytes kein dekodierbares Bild sind
	ErrDecode = errors.New("cannot identify image file")

	// ErrUnsupportedFormat wird zurueckgegeben wenn die Farbkonvertierung scheitert
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrImageTooLarge wird zusammen mit ErrDecode zurueckgegeben wenn der
	// Header mehr Pixel ankuendigt als erlaubt
	ErrImageTooLarge = errors.New("image exceeds pixel limit")
)

// DefaultMaxPixels begrenzt Breite*Hoehe vor dem Dekodieren (Dekompressionsbomben)
const DefaultMaxPixels = 2 * 89_478_485

// NormalizedImage ist ein RGB-Bild, bereit fuer den Encoder.
// Gehoert exklusiv dem Aufrufer von Normalize und wird nach dem Embedding
// mit Release freigegeben.
type NormalizedImage struct {
	Image  *image.RGBA
	Width  int
	Height int
	Format ImageFormat
}

// Release gibt den Pixel-Puffer frei. Weitere Encode-Aufrufe schlagen danach fehl.
func (n *NormalizedImage) Release() {
	if n == nil {
		return
	}
	n.Image = nil
}

// Released meldet ob der Pixel-Puffer bereits freigegeben wurde
func (n *NormalizedImage) Released() bool {
	return n == nil || n.Image == nil
}

// Normalize dekodiert data und verkleinert das Bild so, dass die laengere
// Seite hoechstens size Pixel hat. Kleinere Bilder werden nicht vergroessert.
// Bilder mit mehr als DefaultMaxPixels Pixeln werden abgelehnt.
func Normalize(data []byte, size int) (*NormalizedImage, error) {
	return NormalizeWithLimit(data, size, DefaultMaxPixels)
}

// NormalizeWithLimit arbeitet wie Normalize mit eigenem Pixel-Limit.
// maxPixels <= 0 schaltet die Pruefung ab.
func NormalizeWithLimit(data []byte, size int, maxPixels int64) (*NormalizedImage, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid target size: %d", size)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrDecode)
	}

	format := DetectFormat(data)
	if err := ValidateFormat(format); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// Nur den Header lesen, bevor Pixel-Puffer alloziert werden
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %w: %dx%d pixels, limit %d", ErrDecode, ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image bounds %v", ErrUnsupportedFormat, bounds)
	}

	w, h := thumbnailSize(bounds.Dx(), bounds.Dy(), size)
	rgb, err := flatten(src, w, h)
	if err != nil {
		return nil, err
	}

	return &NormalizedImage{
		Image:  rgb,
		Width:  w,
		Height: h,
		Format: format,
	}, nil
}

// thumbnailSize berechnet die Zielgroesse mit Seitenverhaeltnis.
// Die laengere Seite wird auf size begrenzt, die kuerzere proportional skaliert.
func thumbnailSize(srcW, srcH, size int) (int, int) {
	if srcW <= size && srcH <= size {
		return srcW, srcH
	}

	if srcW >= srcH {
		h := int(math.Round(float64(srcH) * float64(size) / float64(srcW)))
		return size, max(h, 1)
	}

	w := int(math.Round(float64(srcW) * float64(size) / float64(srcH)))
	return max(w, 1), size
}

// flatten zeichnet src auf einen weissen Hintergrund der Groesse w x h.
// Ergebnis ist immer deckend (A=255), also effektiv 3-kanalig.
func flatten(src image.Image, w, h int) (dst *image.RGBA, err error) {
	defer func() {
		// Exotische Farbmodelle koennen beim Konvertieren paniken
		if r := recover(); r != nil {
			dst = nil
			err = fmt.Errorf("%w: color conversion: %v", ErrUnsupportedFormat, r)
		}
	}()

	dst = image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	bounds := src.Bounds()
	if bounds.Dx() == w && bounds.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	return dst, nil
}
