// MODUL: histogram/encoder
// ZWECK: Deterministischer Encoder ohne Modell-Gewichte (Farbhistogramm + Layout)
// INPUT: NormalizedImage
// OUTPUT: 112-dim Roh-Vektor ([]float32)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: vision (VisionEncoder Interface)
// HINWEISE: Fuer Entwicklung und Tests; semantisch schwaecher als CLIP

package histogram

import (
	"errors"
	"math"

	"github.com/7blacky7/imagematch/vision"
)

const (
	// binsPerChannel teilt jeden Farbkanal in gleich breite Bereiche
	binsPerChannel = 4

	// gridSize ist die Anzahl der Zellen pro Achse fuer das Layout-Merkmal
	gridSize = 4

	// EmbeddingDim = 4^3 Histogramm-Bins + 4x4 Zellen * 3 Kanaele
	EmbeddingDim = binsPerChannel*binsPerChannel*binsPerChannel + gridSize*gridSize*3
)

var ErrNoImage = errors.New("histogram: no image data")

// Encoder implementiert vision.VisionEncoder ohne externe Laufzeit.
type Encoder struct {
	info vision.ModelInfo
}

// New erstellt einen Histogramm-Encoder.
func New(spec vision.ModelSpec) *Encoder {
	return &Encoder{
		info: vision.ModelInfo{
			Name:         spec.Name,
			Type:         "histogram",
			EmbeddingDim: EmbeddingDim,
			ImageSize:    spec.ImageSize,
		},
	}
}

// Encode berechnet den Merkmalsvektor.
// Histogramm-Anteile werden wurzel-skaliert (Hellinger), Zell-Mittelwerte um 0.5 zentriert.
func (e *Encoder) Encode(img *vision.NormalizedImage) ([]float32, error) {
	if img.Released() {
		return nil, ErrNoImage
	}

	rgba := img.Image
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrNoImage
	}

	const histLen = binsPerChannel * binsPerChannel * binsPerChannel
	var hist [histLen]float64
	var cellSum [gridSize * gridSize * 3]float64
	var cellCount [gridSize * gridSize]float64

	for y := 0; y < h; y++ {
		off := rgba.PixOffset(b.Min.X, b.Min.Y+y)
		cy := y * gridSize / h
		for x := 0; x < w; x++ {
			r, g, bl := rgba.Pix[off+x*4], rgba.Pix[off+x*4+1], rgba.Pix[off+x*4+2]

			bin := int(r)*binsPerChannel/256*binsPerChannel*binsPerChannel +
				int(g)*binsPerChannel/256*binsPerChannel +
				int(bl)*binsPerChannel/256
			hist[bin]++

			cell := cy*gridSize + x*gridSize/w
			cellSum[cell*3] += float64(r)
			cellSum[cell*3+1] += float64(g)
			cellSum[cell*3+2] += float64(bl)
			cellCount[cell]++
		}
	}

	out := make([]float32, 0, EmbeddingDim)
	total := float64(w * h)
	for _, v := range hist {
		out = append(out, float32(math.Sqrt(v/total)))
	}
	for cell, n := range cellCount {
		for ch := range 3 {
			var mean float64
			if n > 0 {
				mean = cellSum[cell*3+ch] / n / 255
			}
			out = append(out, float32(mean-0.5))
		}
	}

	return out, nil
}

// Close ist ein No-Op, der Encoder haelt keine Ressourcen
func (e *Encoder) Close() error {
	return nil
}

// ModelInfo gibt Metadaten ueber den Encoder zurueck
func (e *Encoder) ModelInfo() vision.ModelInfo {
	return e.info
}
