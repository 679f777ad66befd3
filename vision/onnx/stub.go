//go:build !cgo

// MODUL: onnx/stub
// ZWECK: Registrierung wenn CGO nicht verfuegbar ist
// HINWEISE: Die Factory liefert immer ErrCGORequired; "histogram" bleibt nutzbar

package onnx

import (
	"errors"

	"github.com/7blacky7/imagematch/vision"
)

// ErrCGORequired wird zurueckgegeben wenn CGO nicht verfuegbar ist
var ErrCGORequired = errors.New("onnx: CGO required but not available")

func init() {
	vision.DefaultRegistry.Register("onnx", func(vision.ModelSpec, string, vision.LoadOptions) (vision.VisionEncoder, error) {
		return nil, ErrCGORequired
	})
}
