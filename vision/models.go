// MODUL: models
// ZWECK: Tabelle der bekannten Modell-Varianten (CLIP_MODEL)
// INPUT: Varianten-Name
// OUTPUT: ModelSpec mit Backend, Datei, Bildgroesse, Dimension, Normalisierung
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine
// HINWEISE: DefaultModel ist die bekannt-gute Variante fuer CPU-Betrieb

package vision

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// DefaultModel ist die Standard-Variante wenn CLIP_MODEL nicht gesetzt ist
const DefaultModel = "ViT-B/32"

// ErrUnknownModel wird zurueckgegeben wenn eine Variante nicht bekannt ist
var ErrUnknownModel = errors.New("vision: unknown model variant")

// ModelSpec beschreibt eine Modell-Variante.
type ModelSpec struct {
	Name         string     // Varianten-Name, z.B. "ViT-B/32"
	Backend      string     // Registry-Name des Backends
	File         string     // Dateiname im Modell-Verzeichnis, leer ohne Gewichte
	ImageSize    int        // Kantenlaenge des Encoder-Inputs
	EmbeddingDim int        // Dimension des Roh-Vektors
	Mean         [3]float32 // Normalisierung pro Kanal
	Std          [3]float32
}

var knownModels = map[string]ModelSpec{
	"ViT-B/32": {
		Name: "ViT-B/32", Backend: "onnx", File: "clip-vit-b-32-visual.onnx",
		ImageSize: 224, EmbeddingDim: 512, Mean: ClipMean, Std: ClipStd,
	},
	"ViT-B/16": {
		Name: "ViT-B/16", Backend: "onnx", File: "clip-vit-b-16-visual.onnx",
		ImageSize: 224, EmbeddingDim: 512, Mean: ClipMean, Std: ClipStd,
	},
	"ViT-L/14": {
		Name: "ViT-L/14", Backend: "onnx", File: "clip-vit-l-14-visual.onnx",
		ImageSize: 224, EmbeddingDim: 768, Mean: ClipMean, Std: ClipStd,
	},
	"ViT-L/14@336px": {
		Name: "ViT-L/14@336px", Backend: "onnx", File: "clip-vit-l-14-336-visual.onnx",
		ImageSize: 336, EmbeddingDim: 768, Mean: ClipMean, Std: ClipStd,
	},
	"histogram": {
		Name: "histogram", Backend: "histogram",
		ImageSize: 224, EmbeddingDim: 112,
	},
}

// LookupModel gibt die ModelSpec fuer name zurueck.
func LookupModel(name string) (ModelSpec, error) {
	spec, ok := knownModels[name]
	if !ok {
		return ModelSpec{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownModel, name, KnownModels())
	}
	return spec, nil
}

// KnownModels gibt alle Varianten-Namen sortiert zurueck.
func KnownModels() []string {
	return slices.Sorted(maps.Keys(knownModels))
}
