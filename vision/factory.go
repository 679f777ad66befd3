// MODUL: factory
// ZWECK: Erstellt den prozessweiten Encoder aus Modell-Variante und Modell-Verzeichnis
// INPUT: Varianten-Name (z.B. "ViT-B/32"), Modell-Verzeichnis, Options
// OUTPUT: VisionEncoder Interface Implementation
// NEBENEFFEKTE: Laedt Modell-Dateien, alloziert Speicher
// ABHAENGIGKEITEN: registry.go (DefaultRegistry), models.go (ModelSpec)
// HINWEISE: Wird genau einmal beim Serverstart aufgerufen

package vision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrModelNotFound = errors.New("vision: model file not found")

// ============================================================================
// VisionEncoder Interface
// ============================================================================

// VisionEncoder ist das Orakel: bildet ein NormalizedImage auf einen Roh-Vektor ab.
// Implementierungen duerfen img nach der Rueckkehr nicht mehr referenzieren.
type VisionEncoder interface {
	Encode(img *NormalizedImage) ([]float32, error)
	Close() error
	ModelInfo() ModelInfo
}

// ModelInfo enthaelt Metadaten ueber ein geladenes Modell.
type ModelInfo struct {
	Name         string // Varianten-Name
	Type         string // Backend-Typ
	EmbeddingDim int    // Embedding-Dimension
	ImageSize    int    // Erwartete Kantenlaenge
}

// EncoderFactory ist eine Funktion die einen Encoder erstellt.
// modelPath ist leer fuer Backends ohne Gewichte.
type EncoderFactory func(spec ModelSpec, modelPath string, opts LoadOptions) (VisionEncoder, error)

// ============================================================================
// NewEncoder
// ============================================================================

// NewEncoder erstellt den Encoder fuer die Variante name.
// Gewichte werden aus modelDir/<spec.File> geladen.
func NewEncoder(name, modelDir string, opts ...Option) (VisionEncoder, error) {
	loadOpts := DefaultLoadOptions()
	loadOpts.Apply(opts...)
	if err := loadOpts.Validate(); err != nil {
		return nil, err
	}

	spec, err := LookupModel(name)
	if err != nil {
		return nil, err
	}

	var modelPath string
	if spec.File != "" {
		modelPath = filepath.Join(modelDir, spec.File)
		if _, err := os.Stat(modelPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
	}

	return DefaultRegistry.Create(spec, modelPath, loadOpts)
}
