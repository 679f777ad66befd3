// MODUL: normalize
// ZWECK: Tensor-Konvertierung fuer Encoder mit festem quadratischem Input
// INPUT: NormalizedImage, Zielgroesse, Normalisierungs-Parameter (mean, std)
// OUTPUT: float32-Tensor im CHW Layout
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image/draw
// HINWEISE: CLIP-Presets; Letterbox-Padding mit der Mittelwert-Farbe

package vision

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Standard-Normalisierungswerte fuer verschiedene Modelle
var (
	// CLIP Default (OpenAI ViT-B/32, ViT-B/16, ViT-L/14)
	ClipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	ClipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}

	// ImageNet Default
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// PadToSquare zentriert img auf einer quadratischen Flaeche der Kantenlaenge size.
// Ist img groesser als size, wird es vorher proportional verkleinert.
func PadToSquare(img *image.RGBA, size int, fill color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	b := img.Bounds()
	w, h := thumbnailSize(b.Dx(), b.Dy(), size)
	offX := (size - w) / 2
	offY := (size - h) / 2
	target := image.Rect(offX, offY, offX+w, offY+h)

	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, target, img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, target, img, b, draw.Src, nil)
	}
	return dst
}

// MeanColor gibt die Mittelwert-Farbe eines Presets als RGBA zurueck
func MeanColor(mean [3]float32) color.RGBA {
	return color.RGBA{
		R: uint8(mean[0]*255 + 0.5),
		G: uint8(mean[1]*255 + 0.5),
		B: uint8(mean[2]*255 + 0.5),
		A: 255,
	}
}

// ToCHWTensor konvertiert ein RGBA-Bild zu einem normalisierten float32-Slice
// im CHW Format (Channel-First). Der Alpha-Kanal wird ignoriert.
func ToCHWTensor(img *image.RGBA, mean, std [3]float32) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h

	tensor := make([]float32, plane*3)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+w*4]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+3]
			idx := y*w + x
			tensor[idx] = (float32(px[0])/255 - mean[0]) / std[0]
			tensor[plane+idx] = (float32(px[1])/255 - mean[1]) / std[1]
			tensor[2*plane+idx] = (float32(px[2])/255 - mean[2]) / std[2]
		}
	}

	return tensor
}
